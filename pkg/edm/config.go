package edm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// Default geometry, in pixels.
const (
	DefaultWidth      = 880
	DefaultHeight     = 1500
	DefaultMenuWidth  = 500
	DefaultMenuHeight = 1500

	DefaultY0    = 10
	DefaultYStep = 45

	DefaultMenuX0    = 10
	DefaultMenuY0    = 10
	DefaultMenuYStep = 30
	DefaultMenuXStep = 20
)

// Column positions of a screen.
const (
	colROLabel    = 10
	colROUpdate   = 120
	colRWLabel    = 340
	colRWEntry    = 450
	colRWReadback = 670

	titleStatusX = 25
	titleConfigX = 435
)

// MenuFile is the name of the top-level menu screen.
const MenuFile = "menu.edl"

// PVMacro prefixes every process-variable name on a screen.
const PVMacro = "$(P)"

// Config configures a Generator.
type Config struct {
	// OutDir receives the screen files.
	OutDir string

	// RecordPrefix, RecordNameLenMax and MaxMenu must match the driver so
	// that record names agree.
	RecordPrefix     string
	RecordNameLenMax int
	MaxMenu          int

	Width      int
	Height     int
	MenuWidth  int
	MenuHeight int

	Y0        int
	YStep     int
	MenuX0    int
	MenuY0    int
	MenuYStep int
	MenuXStep int

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the standard screen geometry.
func DefaultConfig() Config {
	return Config{
		OutDir:           "edm",
		RecordNameLenMax: record.DefaultNameLenMax,
		MaxMenu:          record.DefaultMaxMenu,
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		MenuWidth:        DefaultMenuWidth,
		MenuHeight:       DefaultMenuHeight,
		Y0:               DefaultY0,
		YStep:            DefaultYStep,
		MenuX0:           DefaultMenuX0,
		MenuY0:           DefaultMenuY0,
		MenuYStep:        DefaultMenuYStep,
		MenuXStep:        DefaultMenuXStep,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("output directory is required")
	}
	if c.YStep <= 0 || c.MenuYStep <= 0 {
		return errors.New("y steps must be positive")
	}
	if c.Height < c.Y0+2*c.YStep {
		return fmt.Errorf("screen height %d holds no rows", c.Height)
	}
	if c.Width <= 0 || c.MenuWidth <= 0 || c.MenuHeight <= 0 {
		return errors.New("screen sizes must be positive")
	}
	return nil
}
