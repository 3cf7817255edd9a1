package run

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/cmd"
	"github.com/lunixbochs/cellcorn/go/models"
)

func Main(args []string) int {
	c := cmd.NewCmd(args[0])
	c.Args = "<image>"
	var img *cmd.Image
	var timeout *time.Duration
	var regs *bool
	c.SetupFlags = func() error {
		img = c.ImageFlags()
		timeout = c.Flags.Duration("timeout", 0, "stop the emulation after this long")
		regs = c.Flags.Bool("regs", true, "print registers when the thread ends")
		return nil
	}
	c.Main = func(args []string) error {
		l, err := img.Load(c.Config, args[0])
		if err != nil {
			return err
		}
		e, th := l.Emu, l.Thread
		defer e.Close()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		defer signal.Stop(sig)
		var deadline <-chan time.Time
		if *timeout > 0 {
			deadline = time.After(*timeout)
		}
		if err := e.Run(); err != nil {
			return err
		}
		done := make(chan error, 1)
		go func() { done <- e.Wait() }()

		// a paused thread never returns on its own
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		var runErr error
	loop:
		for {
			select {
			case runErr = <-done:
				done = nil
				break loop
			case <-sig:
				runErr = errors.New("interrupted")
				break loop
			case <-deadline:
				runErr = errors.Errorf("timed out after %s", *timeout)
				break loop
			case <-tick.C:
				if th.Status() == models.Paused {
					runErr = errors.Errorf("%s paused at %#x", th, th.Core.PC())
					break loop
				}
			}
		}
		if done != nil {
			e.Stop()
			<-done
		}
		if *regs {
			diff := models.NewStatusDiff(th.Core, th.Core.Bits())
			fmt.Print(diff.Changes(false).String(c.Config.Color))
		}
		return runErr
	}
	return c.Run(args)
}

func init() { cmd.Register("run", "execute a raw code image", Main) }
