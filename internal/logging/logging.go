// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the process logger: a rotated JSON file teed with
// a console stream on stderr.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// File is the rotated log file. Empty disables the file core.
	File string

	// Production switches the console encoder to JSON.
	Production bool

	// Console receives the console stream; nil means stderr.
	Console io.Writer

	// Debug lowers the console level to debug.
	Debug bool
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New returns the logger and a function that flushes it and closes the
// rotator.
func New(opts Options) (*zap.Logger, func()) {
	jsonEncoder := zapcore.NewJSONEncoder(fileEncoderConfig())

	var cores []zapcore.Core
	var rotator *lumberjack.Logger
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), zap.InfoLevel))
	}

	var consoleEncoder zapcore.Encoder
	if opts.Production {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}
	cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(console)), level))

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}
