package models

import (
	"strings"

	"github.com/pkg/errors"
)

// Status is the run state of an emulated thread or of the whole emulator.
//
// Created -> Running <-> Paused -> Stopped. Stopped is terminal.
type Status int32

const (
	Created Status = iota
	Running
	Paused
	Stopped
)

var statusNames = [...]string{"created", "running", "paused", "stopped"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "invalid"
	}
	return statusNames[s]
}

// ThreadType selects the architecture of a thread.
type ThreadType int

const (
	SPU ThreadType = iota
	PPU
	ARMv7
)

var threadTypeNames = [...]string{"SPU", "PPU", "ARMv7"}

func (t ThreadType) String() string {
	if t < 0 || int(t) >= len(threadTypeNames) {
		return "unknown"
	}
	return threadTypeNames[t]
}

func ParseThreadType(name string) (ThreadType, error) {
	for i, n := range threadTypeNames {
		if strings.EqualFold(n, name) {
			return ThreadType(i), nil
		}
	}
	if strings.EqualFold(name, "arm") {
		return ARMv7, nil
	}
	return 0, errors.Errorf("unknown thread type %q", name)
}
