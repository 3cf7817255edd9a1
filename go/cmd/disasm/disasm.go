package disasm

import (
	"fmt"

	"github.com/lunixbochs/cellcorn/go/cmd"
	"github.com/lunixbochs/cellcorn/go/models"
)

func Main(args []string) int {
	c := cmd.NewCmd(args[0])
	c.Args = "<image>"
	var img *cmd.Image
	c.SetupFlags = func() error {
		img = c.ImageFlags()
		return nil
	}
	c.Main = func(args []string) error {
		l, err := img.Load(c.Config, args[0])
		if err != nil {
			return err
		}
		defer l.Emu.Close()
		dec := l.Thread.Decoder()
		step := uint32(4)
		if l.Thread.Type == models.ARMv7 {
			step = 2
		}
		for addr := l.Base; addr < l.End; {
			code, size, err := dec.Fetch(addr)
			if err != nil {
				fmt.Printf("%#08x: %-8s  (bad)\n", addr, "")
				addr += step
				continue
			}
			fmt.Printf("%#08x: %08x  %s\n", addr, code, dec.Disasm(code))
			addr += size
		}
		return nil
	}
	return c.Run(args)
}

func init() { cmd.Register("disasm", "disassemble a raw code image", Main) }
