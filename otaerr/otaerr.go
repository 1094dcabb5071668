/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package otaerr implements the two-field (code, message) fallible-result
// convention used across the OTA install pipeline: every layer returns an
// otaerr.Error instead of panicking or losing the originating OS error.
package otaerr

import (
	"fmt"
	"strings"
)

// Code classifies an error by kind, ordered from most specific (framing)
// to most general (cancellation).
type Code uint16

const (
	CodeUnknown Code = iota
	CodeTarFraming
	CodeManifestSchema
	CodeUnsafePath
	CodeVerification
	CodeFilesystem
	CodeDecompression
	CodeMount
	CodeCancelled
)

func (c Code) String() string {
	switch c {
	case CodeTarFraming:
		return "tar-framing"
	case CodeManifestSchema:
		return "manifest-schema"
	case CodeUnsafePath:
		return "unsafe-path"
	case CodeVerification:
		return "verification"
	case CodeFilesystem:
		return "filesystem"
	case CodeDecompression:
		return "decompression"
	case CodeMount:
		return "mount"
	case CodeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the result type every fallible operation in the pipeline returns.
type Error interface {
	error
	Code() Code
	Unwrap() error
	Is(target error) bool
}

type ers struct {
	code Code
	msg  string
	par  error
}

// New builds a leaf error with a code and a message.
func New(code Code, msg string) Error {
	return &ers{code: code, msg: msg}
}

// Newf builds a leaf error with a code and a formatted message.
func Newf(code Code, format string, args ...any) Error {
	return &ers{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a parent error beneath a new coded message, preserving the
// parent for Unwrap/errors.Is/errors.As chains.
func Wrap(code Code, msg string, parent error) Error {
	return &ers{code: code, msg: msg, par: parent}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(parent error, code Code, format string, args ...any) Error {
	return &ers{code: code, msg: fmt.Sprintf(format, args...), par: parent}
}

// Component wraps a per-component install failure as
// "component '<name>' failed: <inner>". The inner message comes from Error's
// own parent-concatenation, not from baking err.Error() into msg, so the
// text appears exactly once.
func Component(name string, err error) Error {
	return &ers{code: codeOf(err), msg: fmt.Sprintf("component '%s' failed", name), par: err}
}

func codeOf(err error) Code {
	if e, ok := err.(Error); ok {
		return e.Code()
	}
	return CodeUnknown
}

func (e *ers) Error() string {
	if e == nil {
		return ""
	}
	if e.par != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.par.Error())
	}
	return e.msg
}

func (e *ers) Code() Code {
	return e.code
}

func (e *ers) Unwrap() error {
	return e.par
}

// Is matches on code first (when both sides carry a recognized code), then
// falls back to case-insensitive message comparison.
func (e *ers) Is(target error) bool {
	if target == nil {
		return false
	}
	if o, ok := target.(*ers); ok {
		if e.code != CodeUnknown && o.code != CodeUnknown {
			return e.code == o.code
		}
		return strings.EqualFold(e.msg, o.msg)
	}
	return strings.EqualFold(e.Error(), target.Error())
}

// Cancelled reports whether err (or any error in its Unwrap chain) signals
// the cooperative-cancellation path.
func Cancelled(err error) bool {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == CodeCancelled {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
