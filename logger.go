package main

import (
	"fmt"
	"os"
)

type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
}

// logger writes to stderr so that sink output on stdout stays clean.
// The level is a threshold: 0=error, 1=warn, 2=info, 3=debug.
type logger struct {
	level int
}

func NewLogger(level int) Logger {
	return &logger{level: level}
}

func (l *logger) Debug(format string, v ...interface{}) {
	if l.level >= 3 {
		fmt.Fprintf(os.Stderr, format, v...)
	}
}

func (l *logger) Info(format string, v ...interface{}) {
	if l.level >= 2 {
		fmt.Fprintf(os.Stderr, format, v...)
	}
}

func (l *logger) Warn(format string, v ...interface{}) {
	if l.level >= 1 {
		fmt.Fprintf(os.Stderr, format, v...)
	}
}

func (l *logger) Error(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}

func (l *logger) Fatal(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}
