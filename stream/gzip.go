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

package stream

import (
	"bufio"
	"compress/gzip"
	"io"

	"github.com/anhhao17/ota-updater/otaerr"
)

const gzipBufferSize = 16 * 1024

// GzipReader wraps a Reader and decodes a gzip-framed stream on demand,
// lazily on each Read call, so it can sit inside a larger pull-based
// reader tower (counting -> gzip -> staging) with no double buffering.
type GzipReader struct {
	buf *bufio.Reader
	gz  *gzip.Reader
}

// NewGzipReader initializes gzip decoding over src. Initialization
// failures (bad magic, unsupported method) are reported immediately.
func NewGzipReader(src io.Reader) (*GzipReader, otaerr.Error) {
	buf := bufio.NewReaderSize(src, gzipBufferSize)

	gz, err := gzip.NewReader(buf)
	if err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeDecompression, "Gzip init failed: %s", err.Error())
	}

	return &GzipReader{buf: buf, gz: gz}, nil
}

// Read decodes the next chunk of plaintext. A truncated stream (no end
// marker) surfaces as a decode error on the read that discovers it.
func (g *GzipReader) Read(p []byte) (int, error) {
	n, err := g.gz.Read(p)
	if err != nil && err != io.EOF {
		return n, otaerr.Wrapf(err, otaerr.CodeDecompression, "Gzip decode failed: %s", err.Error())
	}
	return n, err
}

// TotalSize is always unknown: gzip streams are not seekable.
func (g *GzipReader) TotalSize() (int64, bool) {
	return 0, false
}

func (g *GzipReader) Close() error {
	return g.gz.Close()
}
