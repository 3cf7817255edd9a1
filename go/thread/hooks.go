package thread

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// Hook is an opaque handle returned by HookAdd.
type Hook interface{}

// callback shapes:
//   HOOK_CODE, HOOK_BLOCK: func(*Thread, uint32, uint32)  addr, size
//   HOOK_INTR:             func(*Thread, uint32) bool      intno, handled
//   HOOK_MEM_ERR:          func(*Thread, int, uint32, int) bool  access, addr, size, handled

type hookInfo struct {
	htype int
	start uint32
	end   uint32
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end hooks every address
func (h *hookInfo) Contains(addr uint32) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type codeHook struct {
	hookInfo
	cb func(*Thread, uint32, uint32)
}

type intrHook struct {
	hookInfo
	cb func(*Thread, uint32) bool
}

type memFaultHook struct {
	hookInfo
	cb func(*Thread, int, uint32, int) bool
}

// Hooks are per-thread observers of execution. They are only touched from
// the goroutine executing the thread.
type Hooks struct {
	t *Thread

	code     []*codeHook
	block    []*codeHook
	intr     []*intrHook
	memFault []*memFaultHook
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start, end uint32) (Hook, error) {
	info := hookInfo{htype, start, end}
	var hook interface{}
	var ok bool
	switch htype {
	case cpu.HOOK_BLOCK:
		hh := &codeHook{hookInfo: info}
		if hh.cb, ok = cb.(func(*Thread, uint32, uint32)); ok {
			h.block, hook = append(h.block, hh), hh
		}
	case cpu.HOOK_CODE:
		hh := &codeHook{hookInfo: info}
		if hh.cb, ok = cb.(func(*Thread, uint32, uint32)); ok {
			h.code, hook = append(h.code, hh), hh
		}
	case cpu.HOOK_INTR:
		hh := &intrHook{hookInfo: info}
		if hh.cb, ok = cb.(func(*Thread, uint32) bool); ok {
			h.intr, hook = append(h.intr, hh), hh
		}
	case cpu.HOOK_MEM_ERR:
		hh := &memFaultHook{hookInfo: info}
		if hh.cb, ok = cb.(func(*Thread, int, uint32, int) bool); ok {
			h.memFault, hook = append(h.memFault, hh), hh
		}
	default:
		return nil, errors.Errorf("unknown hook type %d", htype)
	}
	if !ok {
		return nil, errors.Errorf("wrong callback type %T for hook type %d", cb, htype)
	}
	return hook, nil
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch info.Type() {
	case cpu.HOOK_BLOCK:
		h.block = without(h.block, hh)
	case cpu.HOOK_CODE:
		h.code = without(h.code, hh)
	case cpu.HOOK_INTR:
		h.intr = without(h.intr, hh)
	case cpu.HOOK_MEM_ERR:
		h.memFault = without(h.memFault, hh)
	}
	return nil
}

func without[H comparable](list []H, hh Hook) []H {
	var tmp []H
	for _, v := range list {
		if Hook(v) != hh {
			tmp = append(tmp, v)
		}
	}
	return tmp
}

func (h *Hooks) OnBlock(addr, size uint32) {
	for _, v := range h.block {
		if v.Contains(addr) {
			v.cb(h.t, addr, size)
		}
	}
}

func (h *Hooks) OnCode(addr, size uint32) {
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.t, addr, size)
		}
	}
}

// OnIntr reports whether any hook handled the interrupt.
func (h *Hooks) OnIntr(intno uint32) bool {
	handled := false
	for _, v := range h.intr {
		if v.cb(h.t, intno) {
			handled = true
		}
	}
	return handled
}

// OnFault reports whether a hook handled the bad access, in which case the
// faulting instruction is skipped instead of stopping the thread.
func (h *Hooks) OnFault(access int, addr uint32, size int) bool {
	for _, v := range h.memFault {
		if v.Contains(addr) {
			if v.cb(h.t, access, addr, size) {
				return true
			}
		}
	}
	return false
}
