/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package otalog is a thin, process-global wrapper around logrus, trimmed
// to what a one-shot CLI needs: a level knob driven by -v and a line-guard
// hook the console progress sink registers so log records never get
// spliced into an in-flight progress line.
package otalog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields mirrors logrus.Fields so callers don't need to import logrus directly.
type Fields = logrus.Fields

var (
	mu    sync.Mutex
	lg    = newDefault()
	susFn func()
	resFn func()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(guardedWriter{os.Stderr})
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel raises or lowers the global verbosity, driven by the CLI's -v flag.
func SetLevel(debug bool) {
	mu.Lock()
	defer mu.Unlock()
	if debug {
		lg.SetLevel(logrus.DebugLevel)
	} else {
		lg.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output; tests use this to capture records.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	lg.SetOutput(guardedWriter{w})
}

// SetLineGuard registers the console sink's suspend/resume helpers. Every
// log record write is bracketed by them so a record never gets spliced
// into an in-flight progress line. Pass nil, nil to deregister.
func SetLineGuard(suspend, resume func()) {
	mu.Lock()
	defer mu.Unlock()
	susFn, resFn = suspend, resume
}

// guardedWriter suspends the console progress line around each record
// write.
type guardedWriter struct {
	w io.Writer
}

func (g guardedWriter) Write(p []byte) (int, error) {
	mu.Lock()
	s, r := susFn, resFn
	mu.Unlock()

	if s != nil {
		s()
		defer r()
	}
	return g.w.Write(p)
}

func WithFields(f Fields) *logrus.Entry { return lg.WithFields(f) }

func Debug(args ...any) { lg.Debug(args...) }

func Debugf(f string, a ...any) { lg.Debugf(f, a...) }

func Info(args ...any) { lg.Info(args...) }

func Infof(f string, a ...any) { lg.Infof(f, a...) }

func Warn(args ...any) { lg.Warn(args...) }

func Warnf(f string, a ...any) { lg.Warnf(f, a...) }

func Error(args ...any) { lg.Error(args...) }

func Errorf(f string, a ...any) { lg.Errorf(f, a...) }
