/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package bundle implements a one-pass reader over the outer OTA tar
// stream, built on stdlib archive/tar as the framing layer: a sequential
// state machine that hands one live entry sub-reader at a time to the
// install coordinator.
package bundle

import (
	"archive/tar"
	"io"
	"strings"

	"github.com/anhhao17/ota-updater/otaerr"
	"github.com/anhhao17/ota-updater/stream"
)

type state int

const (
	stateClosed state = iota
	stateOpen
	stateInEntry
	stateBetweenEntries
	stateEOF
)

// EntryInfo describes the current regular-file entry, as produced by Next.
// Name is taken verbatim from the tar header; the bundle reader does not
// normalize it.
type EntryInfo struct {
	Name string
	Size int64
}

// Reader is a one-pass sequential scanner over a single tar stream.
type Reader struct {
	tr    *tar.Reader
	st    state
	cur   *tar.Header
	child *entryReader
}

// Open wraps src, configuring the tar parser. The returned Reader owns src
// for the rest of the pass; opening the same stream twice is the caller's
// bug, not a recoverable state.
func Open(src io.Reader) (*Reader, otaerr.Error) {
	return &Reader{tr: tar.NewReader(src), st: stateOpen}, nil
}

// Next advances to the next regular-file entry, silently skipping
// directories, links, devices and fifos. Fails if the current entry is
// still in_entry.
func (r *Reader) Next() (EntryInfo, bool, otaerr.Error) {
	if r.st == stateInEntry {
		return EntryInfo{}, false, otaerr.New(otaerr.CodeTarFraming, "Previous entry not finished")
	}
	if r.st == stateEOF {
		return EntryInfo{}, true, nil
	}

	for {
		h, err := r.tr.Next()
		if err == io.EOF {
			r.st = stateEOF
			return EntryInfo{}, true, nil
		}
		if err != nil {
			return EntryInfo{}, false, otaerr.Wrapf(err, otaerr.CodeTarFraming, "tar next: %s", err.Error())
		}
		if h.Typeflag != tar.TypeReg {
			continue
		}

		r.cur = h
		r.st = stateBetweenEntries
		return EntryInfo{Name: h.Name, Size: h.Size}, false, nil
	}
}

// ReadCurrentToString consumes the current entry into a string buffer, used
// only for the manifest entry (size-bounded by the bundle itself).
func (r *Reader) ReadCurrentToString() (string, otaerr.Error) {
	if r.st != stateBetweenEntries {
		return "", otaerr.New(otaerr.CodeTarFraming, "no current entry to read")
	}

	var b strings.Builder
	if _, err := io.Copy(&b, r.tr); err != nil {
		return "", otaerr.Wrapf(err, otaerr.CodeTarFraming, "reading entry %s: %s", r.cur.Name, err.Error())
	}
	r.st = stateOpen
	return b.String(), nil
}

// OpenCurrentEntryReader returns a sub-reader over the current entry's data.
// Creating a second sub-reader for the same entry is forbidden.
func (r *Reader) OpenCurrentEntryReader() (stream.Reader, otaerr.Error) {
	if r.st != stateBetweenEntries {
		return nil, otaerr.New(otaerr.CodeTarFraming, "no current entry, or a sub-reader is already live")
	}
	r.st = stateInEntry
	r.child = &entryReader{parent: r, size: r.cur.Size}
	return r.child, nil
}

// SkipCurrent discards any remaining bytes of the current entry.
func (r *Reader) SkipCurrent() otaerr.Error {
	switch r.st {
	case stateOpen, stateEOF:
		return nil
	case stateBetweenEntries:
		if _, err := io.Copy(io.Discard, r.tr); err != nil {
			return otaerr.Wrapf(err, otaerr.CodeTarFraming, "skipping entry %s: %s", r.cur.Name, err.Error())
		}
		r.st = stateOpen
		return nil
	case stateInEntry:
		if _, err := io.Copy(io.Discard, r.tr); err != nil {
			return otaerr.Wrapf(err, otaerr.CodeTarFraming, "skipping entry %s: %s", r.cur.Name, err.Error())
		}
		r.st = stateOpen
		r.child = nil
		return nil
	}
	return nil
}

// entryReader borrows into the parent bundle reader; it does not own it.
// Only one entryReader may be live at a time, enforced by the parent's
// state machine.
type entryReader struct {
	parent *Reader
	size   int64
}

func (e *entryReader) Read(p []byte) (int, error) {
	n, err := e.parent.tr.Read(p)
	if err == io.EOF {
		e.parent.st = stateOpen
		e.parent.child = nil
	}
	return n, err
}

func (e *entryReader) TotalSize() (int64, bool) {
	return e.size, true
}
