package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/arch/spu"
	"github.com/lunixbochs/cellcorn/go/emu"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

var layouts = map[string]vm.Layout{
	"ps3": vm.LayoutPS3,
	"psv": vm.LayoutPSV,
}

// Image describes how a raw code image is placed in a new emulator.
type Image struct {
	Arch   string
	Layout string
	Loc    string
	Entry  uint64
}

// ImageFlags registers the image placement flags on c.
func (c *Cmd) ImageFlags() *Image {
	img := &Image{}
	fs := c.Flags
	fs.StringVar(&img.Arch, "arch", "ppu", "guest architecture: ppu, spu or arm")
	fs.StringVar(&img.Layout, "layout", "", "memory layout: ps3 or psv (default by architecture)")
	fs.StringVar(&img.Loc, "loc", "main", "region to load the image into: main, module or user")
	fs.Uint64Var(&img.Entry, "entry", 0, "entry point as an offset into the image")
	return img
}

func parseLocation(name string) (vm.Location, error) {
	for loc := vm.Location(0); loc < vm.LocationCount; loc++ {
		if strings.EqualFold(loc.String(), name) {
			return loc, nil
		}
	}
	return 0, errors.Errorf("unknown region %q", name)
}

// Loaded is an emulator with an image in memory and one thread at its
// entry point.
type Loaded struct {
	Emu    *emu.Emulator
	Thread *thread.Thread
	// Base and End bound the image in the thread's fetch address space.
	Base, End uint32
}

// Load reads path into a new emulator. SPU images go to the start of the
// thread's local store.
func (img *Image) Load(config *models.Config, path string) (*Loaded, error) {
	typ, err := models.ParseThreadType(img.Arch)
	if err != nil {
		return nil, err
	}
	name := img.Layout
	if name == "" {
		name = "ps3"
		if typ == models.ARMv7 {
			name = "psv"
		}
	}
	layout, ok := layouts[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unknown layout %q", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if img.Entry >= uint64(len(data)) {
		return nil, errors.Errorf("entry %#x is outside the %#x byte image", img.Entry, len(data))
	}

	e, err := emu.New(config, layout)
	if err != nil {
		return nil, err
	}
	if err := e.Init(); err != nil {
		e.Close()
		return nil, err
	}
	l := &Loaded{Emu: e}
	if typ == models.SPU {
		if len(data) > spu.LSSize {
			e.Close()
			return nil, errors.Errorf("image of %#x bytes does not fit the local store", len(data))
		}
		th, err := e.NewThread(typ, path, uint32(img.Entry))
		if err != nil {
			e.Close()
			return nil, err
		}
		core := th.Core.(*spu.Core)
		if err := e.Space().Write(core.LSAddr(0), data); err != nil {
			e.Close()
			return nil, err
		}
		l.Thread, l.End = th, uint32(len(data))
		return l, nil
	}

	loc, err := parseLocation(img.Loc)
	if err != nil {
		e.Close()
		return nil, err
	}
	base, err := e.Load(data, loc)
	if err != nil {
		e.Close()
		return nil, err
	}
	th, err := e.NewThread(typ, path, base+uint32(img.Entry))
	if err != nil {
		e.Close()
		return nil, err
	}
	l.Thread, l.Base, l.End = th, base, base+uint32(len(data))
	return l, nil
}
