package sysutil

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions controls where the global logger writes.
type LogOptions struct {
	Level      string
	Pretty     bool   // human-readable console output instead of JSON
	File       string // optional rotating file, written in JSON
	MaxSizeMB  int
	MaxBackups int
	Service    string
}

// SetupLogger configures the global zerolog logger and returns a close
// function for the log file (a no-op when no file is configured).
func SetupLogger(opts LogOptions) func() error {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var console io.Writer = os.Stdout
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	closeFn := func() error { return nil }
	out := console
	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, rot)
		closeFn = rot.Close
	}

	ctx := zerolog.New(out).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	log.Logger = ctx.Logger()
	return closeFn
}
