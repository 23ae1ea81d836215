package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// logger fields
const (
	PACKAGE   = "pkg"
	COMPONENT = "component"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New returns the root logger. format is "console" for humans or "json".
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// NewPackageLogger returns a child of root tagged with pkg={name}.
func NewPackageLogger(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str(PACKAGE, name).Logger()
}
