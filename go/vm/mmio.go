package vm

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Raw coprocessor device range. Each raw coprocessor owns RawSPUOffset
// bytes starting at RawSPUBase; its problem-state registers start
// RawSPUProbOffset into that window.
const (
	RawSPUBase       = 0xe0000000
	RawSPUOffset     = 0x00100000
	RawSPUProbOffset = 0x00040000
)

// IsRawDevice is evaluated on every big-endian 32-bit access.
func IsRawDevice(addr uint32) bool {
	return addr >= RawSPUBase && addr%RawSPUOffset >= RawSPUProbOffset
}

// MMIO handles redirected device register accesses.
type MMIO interface {
	ReadMMIO32(addr uint32) (uint32, bool)
	WriteMMIO32(addr, val uint32) bool
}

// AttachMMIO installs the device handler. It must be called before any
// thread runs.
func (s *Space) AttachMMIO(m MMIO) {
	s.mmio = m
}

func (s *Space) readMMIO32(addr uint32) uint32 {
	if s.mmio != nil {
		if v, ok := s.mmio.ReadMMIO32(addr); ok {
			return v
		}
	}
	s.log.WithField("addr", addr).Warn("unhandled MMIO read")
	return 0
}

func (s *Space) writeMMIO32(addr, val uint32) {
	if s.mmio != nil && s.mmio.WriteMMIO32(addr, val) {
		return
	}
	s.log.WithFields(logrus.Fields{"addr": addr, "value": val}).Warn("unhandled MMIO write")
}

// Device is one memory-mapped register block. Offsets are relative to the
// device's mapping.
type Device interface {
	Read32(off uint32) uint32
	Write32(off, val uint32)
}

type DevMapping struct {
	Start  uint32
	Length uint32
	Device Device
}

func (d *DevMapping) contains(addr uint32) bool {
	return addr >= d.Start && uint64(addr) < uint64(d.Start)+uint64(d.Length)
}

// MMIOBus routes redirected accesses to devices by address range.
type MMIOBus struct {
	mu   sync.RWMutex
	devs []*DevMapping
}

// Attach maps dev at [start, start+length). Overlapping mappings are rejected.
func (b *MMIOBus) Attach(start, length uint32, dev Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := &DevMapping{Start: start, Length: length, Device: dev}
	for _, d := range b.devs {
		if uint64(d.Start) < uint64(start)+uint64(length) && uint64(start) < uint64(d.Start)+uint64(d.Length) {
			return errors.Errorf("device at %#x+%#x conflicts with device at %#x+%#x", start, length, d.Start, d.Length)
		}
	}
	b.devs = append(b.devs, m)
	sort.Slice(b.devs, func(i, j int) bool { return b.devs[i].Start < b.devs[j].Start })
	return nil
}

func (b *MMIOBus) find(addr uint32) *DevMapping {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := sort.Search(len(b.devs), func(i int) bool {
		return uint64(b.devs[i].Start)+uint64(b.devs[i].Length) > uint64(addr)
	})
	if i < len(b.devs) && b.devs[i].contains(addr) {
		return b.devs[i]
	}
	return nil
}

func (b *MMIOBus) ReadMMIO32(addr uint32) (uint32, bool) {
	if d := b.find(addr); d != nil {
		return d.Device.Read32(addr - d.Start), true
	}
	return 0, false
}

func (b *MMIOBus) WriteMMIO32(addr, val uint32) bool {
	if d := b.find(addr); d != nil {
		d.Device.Write32(addr-d.Start, val)
		return true
	}
	return false
}
