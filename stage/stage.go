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

// Package stage implements staged digest verification: copy a bundle
// entry to a uniquely-named local temp file while hashing it, then
// compare against an expected digest before handing back a read-only
// reader over the verified copy.
package stage

import (
	"io"
	"os"

	"github.com/anhhao17/ota-updater/hashutil"
	"github.com/anhhao17/ota-updater/otaerr"
)

const copyBufferSize = 256 * 1024

// Staged owns a temp file holding a verified copy of a bundle entry. The
// temp file is unlinked when Close is called.
type Staged struct {
	f    *os.File
	path string
}

// Reader returns the staged file, positioned at offset 0 for reading.
func (s *Staged) Reader() *os.File {
	return s.f
}

// Close closes and unlinks the temp file.
func (s *Staged) Close() error {
	cerr := s.f.Close()
	rerr := os.Remove(s.path)
	if cerr != nil {
		return cerr
	}
	return rerr
}

// Verify pulls all bytes from entry, writing them to a new 0600 temp file
// while updating a running SHA-256 digest, then compares the lowercased
// digest against expectedHex. An empty expectedHex is rejected outright.
func Verify(entry io.Reader, expectedHex string) (*Staged, otaerr.Error) {
	if expectedHex == "" {
		return nil, otaerr.New(otaerr.CodeVerification, "empty expected digest")
	}

	tmp, err := os.CreateTemp("", "ota-stage-*")
	if err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeFilesystem, "create staging file: %s", err.Error())
	}

	h := hashutil.New()
	buf := make([]byte, copyBufferSize)

	for {
		n, rerr := entry.Read(buf)
		if n > 0 {
			h.Update(buf[:n])
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				_ = tmp.Close()
				_ = os.Remove(tmp.Name())
				return nil, otaerr.Wrapf(werr, otaerr.CodeFilesystem, "write staging file: %s", werr.Error())
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return nil, otaerr.Wrapf(rerr, otaerr.CodeTarFraming, "read entry for staging: %s", rerr.Error())
		}
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, otaerr.Wrapf(err, otaerr.CodeFilesystem, "fsync staging file: %s", err.Error())
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, otaerr.Wrapf(err, otaerr.CodeFilesystem, "close staging file: %s", err.Error())
	}

	actual := h.FinalHex()
	if !hashutil.EqualHex(expectedHex, actual) {
		_ = os.Remove(tmp.Name())
		return nil, otaerr.Newf(otaerr.CodeVerification, "sha256 mismatch: expected=%s actual=%s", expectedHex, actual)
	}

	rf, err := os.Open(tmp.Name())
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, otaerr.Wrapf(err, otaerr.CodeFilesystem, "reopen staging file: %s", err.Error())
	}

	return &Staged{f: rf, path: tmp.Name()}, nil
}
