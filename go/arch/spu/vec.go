package spu

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// element views of a quadword; index 0 is the most significant element

func words(v cpu.U128) [4]uint32 {
	return [4]uint32{uint32(v.Hi >> 32), uint32(v.Hi), uint32(v.Lo >> 32), uint32(v.Lo)}
}

func fromWords(w [4]uint32) cpu.U128 {
	return cpu.U128{Hi: uint64(w[0])<<32 | uint64(w[1]), Lo: uint64(w[2])<<32 | uint64(w[3])}
}

func halves(v cpu.U128) [8]uint16 {
	var h [8]uint16
	for i := 0; i < 4; i++ {
		h[i] = uint16(v.Hi >> (48 - 16*i))
		h[i+4] = uint16(v.Lo >> (48 - 16*i))
	}
	return h
}

func fromHalves(h [8]uint16) cpu.U128 {
	var v cpu.U128
	for i := 0; i < 4; i++ {
		v.Hi |= uint64(h[i]) << (48 - 16*i)
		v.Lo |= uint64(h[i+4]) << (48 - 16*i)
	}
	return v
}

func quadBytes(v cpu.U128) [16]byte {
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v.Hi >> (56 - 8*i))
		b[i+8] = byte(v.Lo >> (56 - 8*i))
	}
	return b
}

func fromBytes(b [16]byte) cpu.U128 {
	var v cpu.U128
	for i := 0; i < 8; i++ {
		v.Hi |= uint64(b[i]) << (56 - 8*i)
		v.Lo |= uint64(b[i+8]) << (56 - 8*i)
	}
	return v
}

func mapWords(a, b cpu.U128, f func(x, y uint32) uint32) cpu.U128 {
	wa, wb := words(a), words(b)
	for i := range wa {
		wa[i] = f(wa[i], wb[i])
	}
	return fromWords(wa)
}

func mapHalves(a, b cpu.U128, f func(x, y uint16) uint16) cpu.U128 {
	ha, hb := halves(a), halves(b)
	for i := range ha {
		ha[i] = f(ha[i], hb[i])
	}
	return fromHalves(ha)
}

func mapBytes(a, b cpu.U128, f func(x, y byte) byte) cpu.U128 {
	ba, bb := quadBytes(a), quadBytes(b)
	for i := range ba {
		ba[i] = f(ba[i], bb[i])
	}
	return fromBytes(ba)
}

func mask32(c bool) uint32 {
	if c {
		return 0xffffffff
	}
	return 0
}

func mask16(c bool) uint16 {
	if c {
		return 0xffff
	}
	return 0
}

func mask8(c bool) byte {
	if c {
		return 0xff
	}
	return 0
}

func shl128(v cpu.U128, n uint) cpu.U128 {
	switch {
	case n >= 128:
		return cpu.U128{}
	case n >= 64:
		return cpu.U128{Hi: v.Lo << (n - 64)}
	case n == 0:
		return v
	}
	return cpu.U128{Hi: v.Hi<<n | v.Lo>>(64-n), Lo: v.Lo << n}
}

func shr128(v cpu.U128, n uint) cpu.U128 {
	switch {
	case n >= 128:
		return cpu.U128{}
	case n >= 64:
		return cpu.U128{Lo: v.Hi >> (n - 64)}
	case n == 0:
		return v
	}
	return cpu.U128{Hi: v.Hi >> n, Lo: v.Lo>>n | v.Hi<<(64-n)}
}

func rotl128(v cpu.U128, n uint) cpu.U128 {
	n &= 127
	if n == 0 {
		return v
	}
	l, r := shl128(v, n), shr128(v, 128-n)
	return cpu.U128{Hi: l.Hi | r.Hi, Lo: l.Lo | r.Lo}
}

func popcount8(b byte) byte {
	return byte(bits.OnesCount8(b))
}
