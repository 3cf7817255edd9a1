package vm

import (
	"encoding/binary"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// Accessor is the typed view of a Space for one architecture's byte order.
// Accesses outside the backing buffer or to unmapped granules panic with
// *cpu.MemError; the thread loop turns that into a fault for the accessing
// thread. Protection bits are not checked on this path.
type Accessor interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Read64(addr uint32) uint64
	Read128(addr uint32) cpu.U128

	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	Write64(addr uint32, v uint64)
	Write128(addr uint32, v cpu.U128)

	Order() binary.ByteOrder
	Space() *Space
}

func oob(addr uint32, size int) *cpu.MemError {
	return &cpu.MemError{Addr: addr, Size: size, Enum: cpu.MEM_OUT_OF_BOUNDS}
}

// slice returns the n bytes at addr for reading or panics.
func (s *Space) slice(addr uint32, n int) []byte {
	return s.bytes(addr, n, cpu.MEM_READ_UNMAPPED)
}

// wslice is slice for stores.
func (s *Space) wslice(addr uint32, n int) []byte {
	return s.bytes(addr, n, cpu.MEM_WRITE_UNMAPPED)
}

func (s *Space) bytes(addr uint32, n int, miss int) []byte {
	m := s.mem
	if uint64(addr)+uint64(n) > uint64(len(m)) {
		panic(oob(addr, n))
	}
	if !s.isMapped(addr, n) {
		panic(&cpu.MemError{Addr: addr, Size: n, Enum: miss})
	}
	return m[addr : uint64(addr)+uint64(n)]
}

// BE is the accessor of big-endian native architectures: every multi-byte
// access is byte-swapped relative to the little-endian host. 32-bit
// accesses inside the raw device range go to the attached MMIO handler.
type BE struct{ s *Space }

func (s *Space) BE() BE { return BE{s} }

func (a BE) Order() binary.ByteOrder { return binary.BigEndian }
func (a BE) Space() *Space           { return a.s }

func (a BE) Read8(addr uint32) uint8 { return a.s.slice(addr, 1)[0] }
func (a BE) Read16(addr uint32) uint16 {
	return binary.BigEndian.Uint16(a.s.slice(addr, 2))
}
func (a BE) Read32(addr uint32) uint32 {
	if IsRawDevice(addr) {
		return a.s.readMMIO32(addr)
	}
	return binary.BigEndian.Uint32(a.s.slice(addr, 4))
}
func (a BE) Read64(addr uint32) uint64 {
	return binary.BigEndian.Uint64(a.s.slice(addr, 8))
}
func (a BE) Read128(addr uint32) cpu.U128 {
	return cpu.UnpackU128(binary.BigEndian, a.s.slice(addr, 16))
}

func (a BE) Write8(addr uint32, v uint8) { a.s.wslice(addr, 1)[0] = v }
func (a BE) Write16(addr uint32, v uint16) {
	binary.BigEndian.PutUint16(a.s.wslice(addr, 2), v)
}
func (a BE) Write32(addr uint32, v uint32) {
	if IsRawDevice(addr) {
		a.s.writeMMIO32(addr, v)
		return
	}
	binary.BigEndian.PutUint32(a.s.wslice(addr, 4), v)
}
func (a BE) Write64(addr uint32, v uint64) {
	binary.BigEndian.PutUint64(a.s.wslice(addr, 8), v)
}
func (a BE) Write128(addr uint32, v cpu.U128) {
	cpu.PackU128(binary.BigEndian, a.s.wslice(addr, 16), v)
}

// LE is the accessor of little-endian native architectures; bytes are used
// in host order.
type LE struct{ s *Space }

func (s *Space) LE() LE { return LE{s} }

func (a LE) Order() binary.ByteOrder { return binary.LittleEndian }
func (a LE) Space() *Space           { return a.s }

func (a LE) Read8(addr uint32) uint8 { return a.s.slice(addr, 1)[0] }
func (a LE) Read16(addr uint32) uint16 {
	return binary.LittleEndian.Uint16(a.s.slice(addr, 2))
}
func (a LE) Read32(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(a.s.slice(addr, 4))
}
func (a LE) Read64(addr uint32) uint64 {
	return binary.LittleEndian.Uint64(a.s.slice(addr, 8))
}
func (a LE) Read128(addr uint32) cpu.U128 {
	return cpu.UnpackU128(binary.LittleEndian, a.s.slice(addr, 16))
}

func (a LE) Write8(addr uint32, v uint8) { a.s.wslice(addr, 1)[0] = v }
func (a LE) Write16(addr uint32, v uint16) {
	binary.LittleEndian.PutUint16(a.s.wslice(addr, 2), v)
}
func (a LE) Write32(addr uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.s.wslice(addr, 4), v)
}
func (a LE) Write64(addr uint32, v uint64) {
	binary.LittleEndian.PutUint64(a.s.wslice(addr, 8), v)
}
func (a LE) Write128(addr uint32, v cpu.U128) {
	cpu.PackU128(binary.LittleEndian, a.s.wslice(addr, 16), v)
}

// Accessor returns the accessor matching order.
func (s *Space) Accessor(order binary.ByteOrder) Accessor {
	if order == binary.BigEndian {
		return s.BE()
	}
	return s.LE()
}
