package cmd

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/vm"
)

func TestParseLocation(t *testing.T) {
	for loc := vm.Location(0); loc < vm.LocationCount; loc++ {
		got, err := parseLocation(strings.ToUpper(loc.String()))
		if err != nil || got != loc {
			t.Fatalf("parseLocation(%s) = %v, %v", loc, got, err)
		}
	}
	if _, err := parseLocation("heap"); err == nil {
		t.Fatal("accepted unknown region")
	}
}

func TestPrintFlagsWraps(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("v", false, "verbose output")
	fs.String("arch", "ppu", strings.Repeat("word ", 30))
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
	var buf bytes.Buffer
	printFlags(&buf, flags)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("usage not wrapped:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "  -arch (ppu)") {
		t.Fatalf("first line %q", lines[0])
	}
	for _, line := range lines {
		if len(line) > 80 {
			t.Fatalf("line too long: %q", line)
		}
	}
	if !strings.HasPrefix(lines[len(lines)-1], "  -v ") {
		t.Fatalf("last line %q", lines[len(lines)-1])
	}
}

func TestImageLoadRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bin")
	if err := os.WriteFile(path, make([]byte, 8), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := models.DefaultConfig()
	tests := []struct {
		name string
		img  Image
		path string
	}{
		{"arch", Image{Arch: "z80", Loc: "main"}, path},
		{"layout", Image{Arch: "ppu", Layout: "xbox", Loc: "main"}, path},
		{"entry", Image{Arch: "ppu", Loc: "main", Entry: 8}, path},
		{"missing", Image{Arch: "arm", Loc: "main"}, path + ".missing"},
	}
	for _, tt := range tests {
		if l, err := tt.img.Load(cfg, tt.path); err == nil {
			l.Emu.Close()
			t.Errorf("%s: loaded", tt.name)
		}
	}
}

func TestUsage(t *testing.T) {
	Register("noop", "does nothing", func([]string) int { return 0 })
	var buf bytes.Buffer
	usage(&buf, "cellcorn")
	out := buf.String()
	for _, want := range []string{
		"Usage: cellcorn <command>",
		"noop | does nothing",
		"ps3, big-endian:",
		"psv, little-endian:",
		"main   0x00010000-0x20000000",
		"stack  0xc0000000-0xd0000000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("usage missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "ps3") > strings.Index(out, "psv") {
		t.Error("layouts not sorted")
	}
}
