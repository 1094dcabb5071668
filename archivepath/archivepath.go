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

// Package archivepath implements the entry-path policy shared by the
// bundle reader's callers and the tar directory extractor: normalize
// first, then reject anything empty, absolute, backslashed, or carrying
// a parent-directory segment.
package archivepath

import (
	"strings"

	"github.com/anhhao17/ota-updater/otaerr"
)

// Normalize strips leading "./" runs, strips leading slashes, and collapses
// runs of "/" into one, without rejecting anything yet. A lone "." reduces
// to the empty string.
func Normalize(raw string) string {
	s := raw
	for strings.HasPrefix(s, "./") {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	if s == "." {
		return ""
	}

	var b strings.Builder
	lastSlash := false
	for _, r := range s {
		if r == '/' {
			if lastSlash {
				continue
			}
			lastSlash = true
		} else {
			lastSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SafePaths rejects a normalized entry path that is empty, absolute,
// contains a backslash anywhere, or has a ".." segment.
func SafePaths(normalized string) otaerr.Error {
	if reason := unsafeReason(normalized); reason != "" {
		return otaerr.Newf(otaerr.CodeUnsafePath, "Unsafe path in archive: %s", reason)
	}
	return nil
}

func unsafeReason(normalized string) string {
	if normalized == "" {
		return "empty path"
	}
	if strings.HasPrefix(normalized, "/") {
		return "absolute path " + normalized
	}
	if strings.ContainsRune(normalized, '\\') {
		return "backslash in " + normalized
	}
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return "parent-directory segment in " + normalized
		}
	}
	return ""
}

// NormalizeEntryPath normalizes raw and applies the safe_paths_only policy,
// returning the safe relative path or an error.
func NormalizeEntryPath(raw string) (string, otaerr.Error) {
	n := Normalize(raw)
	if err := SafePaths(n); err != nil {
		return "", err
	}
	return n, nil
}

// NormalizeLinkTarget applies the same normalization/rejection rules to a
// hardlink target, except an empty input is permitted and returned as-is.
func NormalizeLinkTarget(raw string) (string, otaerr.Error) {
	if raw == "" {
		return "", nil
	}
	n := Normalize(raw)
	if reason := unsafeReason(n); reason != "" {
		return "", otaerr.Newf(otaerr.CodeUnsafePath, "Unsafe hardlink target: %s", reason)
	}
	return n, nil
}
