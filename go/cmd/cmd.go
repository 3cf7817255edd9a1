package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
)

// Cmd is the flag and config plumbing shared by every subcommand.
type Cmd struct {
	Config *models.Config
	Flags  *flag.FlagSet

	// Args names the positional arguments in the usage line.
	Args string
	// SetupFlags registers subcommand flags. Config already holds the
	// saved settings, so flags may default to its fields.
	SetupFlags func() error
	Main       func(args []string) error
}

func NewCmd(name string) *Cmd {
	return &Cmd{Flags: flag.NewFlagSet(name, flag.ExitOnError)}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err and, for errors carrying one, its stack trace.
func (c *Cmd) PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	st, ok := errors.Cause(err).(stackTracer)
	if !ok {
		st, ok = err.(stackTracer)
	}
	if !ok || c.Config == nil || !c.Config.Verbose {
		return
	}
	var frames [][2]string
	width := 0
	for _, f := range st.StackTrace() {
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)
		frames = append(frames, [2]string{fileline, method})
		if len(fileline) > width {
			width = len(fileline)
		}
		if method == "main" {
			break
		}
	}
	for _, f := range frames {
		fmt.Fprintf(os.Stderr, "%s%s | %s()\n", f[0], strings.Repeat(" ", width-len(f[0])), f[1])
	}
}

func (c *Cmd) usage() {
	fs := c.Flags
	fmt.Fprintf(os.Stderr, "Usage: %s [options] %s\n\nOptions:\n", fs.Name(), c.Args)
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
	printFlags(os.Stderr, flags)
}

// Run parses argv, builds the configuration and runs Main. The saved
// settings provide flag defaults; -save writes the resulting settings
// back.
func (c *Cmd) Run(argv []string) int {
	config, err := models.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s\n", err)
		config = models.DefaultConfig()
	}
	c.Config = config

	fs := c.Flags
	fs.BoolVar(&config.Verbose, "v", config.Verbose, "verbose output")
	fs.BoolVar(&config.Color, "color", config.Color, "colorize logs and register dumps")
	fs.TextVar(&config.DecoderMode, "decoder", config.DecoderMode, "execution mode: interpreter, trace or recompiler")
	fs.Uint64Var(&config.MemorySize, "mem", config.MemorySize, "size of the emulated address space")
	fs.BoolVar(&config.StrictExec, "strict", config.StrictExec, "require execute permission on instruction fetch")
	outfile := fs.String("o", "", "redirect log output to file (default stderr)")
	save := fs.Bool("save", false, "save these settings as the new defaults")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to <file>")
	memprofile := fs.String("memprofile", "", "write mem profile to <file>")
	fs.Usage = c.usage
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	fs.Parse(argv[1:])

	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			c.PrintError(err)
			return 1
		}
		defer out.Close()
		config.Output = out
	}
	if *save {
		if err := config.Save(); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			c.PrintError(err)
			return 1
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		defer writeHeapProfile(*memprofile)
	}

	if c.Args != "" && fs.NArg() < 1 {
		fs.Usage()
		return 1
	}
	if err := c.Main(fs.Args()); err != nil {
		c.PrintError(err)
		return 1
	}
	return 0
}

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not write heap profile: %s\n", err)
		return
	}
	defer f.Close()
	pprof.WriteHeapProfile(f)
}

func printFlags(w io.Writer, flags []*flag.Flag) {
	wname, wdef := 0, 0
	for _, f := range flags {
		if len(f.Name) > wname {
			wname = len(f.Name)
		}
		if len(f.DefValue) > wdef {
			wdef = len(f.DefValue)
		}
	}
	wdesc := 80 - wname - wdef - 7
	if wdesc < 20 {
		wdesc = 20
	}
	namefmt := fmt.Sprintf("  -%%-%ds ", wname)
	deffmt := fmt.Sprintf("%%-%ds ", wdef+2)
	lpad := strings.Repeat(" ", wname+wdef+7)
	for _, f := range flags {
		fmt.Fprintf(w, namefmt, f.Name)
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Fprintf(w, deffmt, "("+f.DefValue+")")
		} else {
			fmt.Fprintf(w, deffmt, "")
		}
		// wrap on the last space that fits
		usage := f.Usage
		for first := true; first || usage != ""; first = false {
			if !first {
				fmt.Fprint(w, lpad)
			}
			line := usage
			if len(line) > wdesc {
				line = line[:wdesc]
				if s := strings.LastIndexByte(line, ' '); s > 0 {
					line = line[:s]
				}
			}
			fmt.Fprintln(w, line)
			usage = strings.TrimPrefix(usage[len(line):], " ")
		}
	}
}
