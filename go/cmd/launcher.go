package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lunixbochs/cellcorn/go/vm"
)

type command struct {
	name, desc string
	main       func(args []string) int
}

var commands = make(map[string]*command)
var order []string
var pad int

// Register adds a subcommand. main receives the argv with the command
// name folded into argv[0] and returns the exit status.
func Register(name, desc string, main func(args []string) int) {
	if len(name) > pad {
		pad = len(name)
	}
	commands[name] = &command{name, desc, main}
	order = append(order, name)
}

// usage lists the subcommands and the memory layouts an image can be
// placed in.
func usage(w io.Writer, prog string) {
	fmt.Fprintf(w, "Usage: %s <command> [flags] <image>\n\n", prog)
	fmt.Fprintln(w, "Runs raw PPU, SPU and ARMv7 code images in an emulated PS3 or PS Vita address space.")
	fmt.Fprintln(w, "\nCommands:")
	fstr := fmt.Sprintf("  %%-%ds | %%s\n", pad)
	for _, name := range order {
		cmd := commands[name]
		fmt.Fprintf(w, fstr, cmd.name, cmd.desc)
	}
	fmt.Fprintln(w, "\nLayouts (-layout):")
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l := layouts[name]
		endian := "little-endian"
		if l.BigEndian {
			endian = "big-endian"
		}
		fmt.Fprintf(w, "  %s, %s:\n", name, endian)
		for loc := vm.Location(0); loc < vm.LocationCount; loc++ {
			r := l.Regions[loc]
			fmt.Fprintf(w, "    %-6s 0x%08x-0x%08x\n", loc, r.Base, uint64(r.Base)+uint64(r.Size))
		}
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s run -arch ppu -v prog.bin\n", prog)
	fmt.Fprintf(w, "  %s disasm -arch spu kernel.spu\n\n", prog)
}

func Main() {
	if len(os.Args) < 2 {
		usage(os.Stderr, os.Args[0])
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Command '%s' not found.\n\n", os.Args[1])
		usage(os.Stderr, os.Args[0])
		os.Exit(1)
	}
	args := append([]string{strings.Join(os.Args[:2], " ")}, os.Args[2:]...)
	os.Exit(cmd.main(args))
}
