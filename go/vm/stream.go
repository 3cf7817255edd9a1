package vm

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
)

// Reader streams guest memory starting at Addr.
type Reader struct {
	S    *Space
	Addr uint32
}

func (m *Reader) Read(p []byte) (int, error) {
	if err := m.S.Read(m.Addr, p); err != nil {
		return 0, err
	}
	m.Addr += uint32(len(p))
	return len(p), nil
}

// Writer streams into guest memory starting at Addr.
type Writer struct {
	S    *Space
	Addr uint32
}

func (m *Writer) Write(p []byte) (int, error) {
	if err := m.S.Write(m.Addr, p); err != nil {
		return 0, err
	}
	m.Addr += uint32(len(p))
	return len(p), nil
}

type StrucStream struct {
	Stream io.ReadWriter
	Order  binary.ByteOrder
}

func (s *StrucStream) Pack(i interface{}) error {
	return struc.PackWithOrder(s.Stream, i, s.Order)
}

func (s *StrucStream) Unpack(i interface{}) error {
	return struc.UnpackWithOrder(s.Stream, i, s.Order)
}

type rw struct {
	*Reader
	*Writer
}

// Stream returns a struct stream positioned at addr.
func (s *Space) Stream(addr uint32, order binary.ByteOrder) *StrucStream {
	return &StrucStream{
		Stream: rw{&Reader{S: s, Addr: addr}, &Writer{S: s, Addr: addr}},
		Order:  order,
	}
}

// Pack writes the struct-shaped guest value v at addr.
func (s *Space) Pack(addr uint32, v interface{}, order binary.ByteOrder) error {
	return struc.PackWithOrder(&Writer{S: s, Addr: addr}, v, order)
}

// Unpack reads the struct-shaped guest value at addr into v.
func (s *Space) Unpack(addr uint32, v interface{}, order binary.ByteOrder) error {
	return struc.UnpackWithOrder(&Reader{S: s, Addr: addr}, v, order)
}

// Sizeof returns the guest size of a struct-shaped value.
func Sizeof(v interface{}) (int, error) {
	return struc.Sizeof(v)
}
