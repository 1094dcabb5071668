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

// Package hashutil implements the incremental SHA-256 digest used for
// payload verification, plus whole-span/reader/file convenience wrappers
// and case-insensitive hex comparison.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"
)

// Hasher is a single-use incremental SHA-256 digest.
type Hasher struct {
	hasher hash.Hash
	done   bool
}

// New returns a fresh incremental hasher.
func New() *Hasher {
	return &Hasher{hasher: sha256.New()}
}

// Update feeds more bytes into the digest. No-op once FinalHex has run.
func (h *Hasher) Update(p []byte) {
	if h.done {
		return
	}
	_, _ = h.hasher.Write(p)
}

// FinalHex returns the lowercase hex digest exactly once; subsequent calls
// return the empty-string sentinel.
func (h *Hasher) FinalHex() string {
	if h.done {
		return ""
	}
	h.done = true
	return hex.EncodeToString(h.hasher.Sum(nil))
}

// SumBytes is the all-at-once convenience wrapper over a byte span.
func SumBytes(p []byte) string {
	sum := sha256.Sum256(p)
	return hex.EncodeToString(sum[:])
}

// SumReader is the all-at-once convenience wrapper over a reader.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile is the all-at-once convenience wrapper over a file path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return SumReader(f)
}

// EqualHex compares two hex digests case-insensitively.
func EqualHex(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
