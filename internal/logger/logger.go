// Package logger provides the leveled, channel-buffered logger used across
// every command: info/warn/debug/trace plus a progress line, each drained
// by its own goroutine through a 64-message buffer, so a slow terminal
// blocks a caller only once that buffer is full.
package logger

import (
	"fmt"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	infoChan     chan string
	warnChan     chan string
	debugChan    chan string
	traceChan    chan string
	progressChan chan string

	enableDebug    = false
	enableTrace    = false
	enableProgress = true

	startOnce sync.Once

	infoLogger     *charmlog.Logger
	warnLogger     *charmlog.Logger
	debugLogger    *charmlog.Logger
	traceLogger    *charmlog.Logger
	progressLogger *charmlog.Logger
)

func start() {
	startOnce.Do(func() {
		infoLogger = charmlog.New(os.Stdout)
		warnLogger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "warn"})
		debugLogger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "debug"})
		traceLogger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "trace"})
		progressLogger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "::"})

		infoChan = make(chan string, 64)
		warnChan = make(chan string, 64)
		debugChan = make(chan string, 64)
		traceChan = make(chan string, 64)
		progressChan = make(chan string, 64)

		go drain(infoChan, infoLogger)
		go drain(warnChan, warnLogger)
		go drain(debugChan, debugLogger)
		go drain(traceChan, traceLogger)
		go drain(progressChan, progressLogger)
	})
}

func drain(ch chan string, l *charmlog.Logger) {
	for msg := range ch {
		l.Print(msg)
	}
}

// SetDebug toggles Debug output.
func SetDebug(on bool) { start(); enableDebug = on }

// SetTrace toggles Trace output.
func SetTrace(on bool) { start(); enableTrace = on }

// SetProgress toggles Progress output, used for --quiet.
func SetProgress(on bool) { start(); enableProgress = on }

// Info logs an unconditional informational line.
func Info(format string, args ...interface{}) {
	start()
	infoChan <- fmt.Sprintf(format, args...)
}

// Warn logs a non-fatal problem: a skipped file, a deferred rename.
func Warn(format string, args ...interface{}) {
	start()
	warnChan <- fmt.Sprintf(format, args...)
}

// Error logs a structural problem about to abort the command.
func Error(format string, args ...interface{}) {
	start()
	warnChan <- fmt.Sprintf(format, args...)
}

// Debug logs internal state, shown only when SetDebug(true) was called.
func Debug(format string, args ...interface{}) {
	start()
	if enableDebug {
		debugChan <- fmt.Sprintf(format, args...)
	}
}

// Trace logs per-file algorithm detail, for diagnosing a specific run.
func Trace(format string, args ...interface{}) {
	start()
	if enableTrace {
		traceChan <- fmt.Sprintf(format, args...)
	}
}

// Progress logs a phase marker ("scanning source", "matching", ...).
func Progress(format string, args ...interface{}) {
	start()
	if enableProgress {
		progressChan <- fmt.Sprintf(format, args...)
	}
}
