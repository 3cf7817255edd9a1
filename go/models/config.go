package models

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/sirupsen/logrus"
)

// DecoderMode selects how threads execute guest code. It is read once,
// when a thread is prepared.
type DecoderMode int

const (
	Interpreter DecoderMode = iota
	// Trace interprets and logs every instruction.
	Trace
	// Recompiler is accepted for compatibility and falls back to the
	// interpreter.
	Recompiler
)

var decoderModeNames = [...]string{"interpreter", "trace", "recompiler"}

func (m DecoderMode) String() string {
	if m < 0 || int(m) >= len(decoderModeNames) {
		return "invalid"
	}
	return decoderModeNames[m]
}

func (m DecoderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DecoderMode) UnmarshalText(text []byte) error {
	for i, name := range decoderModeNames {
		if strings.EqualFold(string(text), name) {
			*m = DecoderMode(i)
			return nil
		}
	}
	return errors.Errorf("unknown decoder mode %q", text)
}

const (
	configVendor = "lunixbochs"
	configApp    = "cellcorn"
	configFile   = "settings.json"
)

type Config struct {
	DecoderMode DecoderMode
	Color       bool
	Verbose     bool
	// MemorySize is the size of the emulated physical address space.
	MemorySize uint64
	// StopAddr is the return address that ends a fast call.
	StopAddr uint32
	// StrictExec requires PROT_EXEC on instruction fetch.
	StrictExec bool

	Output io.WriteCloser `json:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		DecoderMode: Interpreter,
		MemorySize:  1 << 32,
		StopAddr:    0xfffffff0,
		StrictExec:  true,
		Output:      os.Stderr,
	}
}

// LoadConfig returns the defaults overlaid with the first settings file
// found in the user or system config folders. A missing file is fine.
func LoadConfig() (*Config, error) {
	c := DefaultConfig()
	dirs := configdir.New(configVendor, configApp)
	folder := dirs.QueryFolderContainsFile(configFile)
	if folder == nil {
		return c, nil
	}
	data, err := folder.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}
	if err := c.Merge(data); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", folder.Path)
	}
	return c, nil
}

// Merge overlays JSON settings on c.
func (c *Config) Merge(data []byte) error {
	return errors.WithStack(json.Unmarshal(data, c))
}

// Save writes c to the user settings folder.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	folders := configdir.New(configVendor, configApp).QueryFolders(configdir.Global)
	if len(folders) == 0 {
		return errors.New("no settings folder")
	}
	return errors.Wrap(folders[0].WriteFile(configFile, data), "writing settings")
}

// Logger builds the emulator's root logger from c.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if c.Output != nil {
		log.SetOutput(c.Output)
	}
	log.SetFormatter(&logrus.TextFormatter{ForceColors: c.Color, DisableColors: !c.Color})
	if c.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
