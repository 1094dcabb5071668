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

// Package stream defines the pull-based Reader/Writer contracts the
// install pipeline is built from: Reader embeds io.Reader (0 bytes +
// io.EOF is clean end-of-stream; any other error is a read failure) and
// adds TotalSize for display-only use. Writer adds WriteAll (all-or-fail)
// and FsyncNow atop io.WriteCloser.
package stream

import "io"

// Reader is a single-threaded, pull-based byte source. Partial reads are
// legal on every call; callers loop until io.EOF.
type Reader interface {
	io.Reader
	// TotalSize returns the declared size of the stream when known, for
	// display purposes only; it must never be relied upon for framing.
	TotalSize() (size int64, ok bool)
}

// Writer is a pull-based byte sink that can force data to stable storage.
type Writer interface {
	io.Writer
	io.Closer
	// WriteAll writes every byte of p or returns an error; unlike io.Writer
	// it never returns a short write without an accompanying error.
	WriteAll(p []byte) error
	// FsyncNow flushes any buffered bytes through to stable storage.
	FsyncNow() error
}

// sized adapts a plain io.Reader (unknown size) to Reader.
type sized struct {
	io.Reader
	size int64
	know bool
}

// FromReader wraps any io.Reader as a Reader with no known total size.
func FromReader(r io.Reader) Reader {
	return &sized{Reader: r}
}

// FromReaderSize wraps any io.Reader as a Reader with a known total size.
func FromReaderSize(r io.Reader, size int64) Reader {
	return &sized{Reader: r, size: size, know: true}
}

func (s *sized) TotalSize() (int64, bool) {
	return s.size, s.know
}
