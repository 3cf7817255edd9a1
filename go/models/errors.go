package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrNotImplemented     = errors.New("instruction not implemented")
	ErrStopped            = errors.New("thread stopped")
)

// FaultError describes an abnormal stop of one thread.
type FaultError struct {
	Thread uint32
	Name   string
	PC     uint32
	Code   uint32
	Err    error
}

func (f *FaultError) Error() string {
	return fmt.Sprintf("thread %d (%s) at %#08x [%08x]: %v", f.Thread, f.Name, f.PC, f.Code, f.Err)
}

func (f *FaultError) Cause() error  { return f.Err }
func (f *FaultError) Unwrap() error { return f.Err }
