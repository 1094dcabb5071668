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

// Package tarextract streams a nested tar into a target directory. Entry
// paths are rewritten to absolute form under the target rather than
// refused when absolute, since a rewrite-based extractor re-roots every
// target safely by construction.
package tarextract

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/anhhao17/ota-updater/archivepath"
	"github.com/anhhao17/ota-updater/otaerr"
)

const blockSize = 32 * 1024

// Extract consumes a nested tar stream from src and writes its contents
// under targetDir. onBlock, if non-nil, is invoked after each data block is
// written to the current file, with the number of bytes in that block.
func Extract(src io.Reader, targetDir string, onBlock func(n int64)) otaerr.Error {
	tr := tar.NewReader(src)

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return otaerr.Wrapf(err, otaerr.CodeTarFraming, "tar next: %s", err.Error())
		}

		rel := archivepath.Normalize(h.Name)
		if rel == "" || rel == "." {
			continue
		}
		if serr := archivepath.SafePaths(rel); serr != nil {
			return serr
		}

		dst := filepath.Join(targetDir, rel)

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return otaerr.Wrapf(err, otaerr.CodeFilesystem, "mkdir for %s: %s", dst, err.Error())
		}

		switch h.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dst, h.FileInfo().Mode()); err != nil {
				return otaerr.Wrapf(err, otaerr.CodeFilesystem, "mkdir %s: %s", dst, err.Error())
			}
			continue
		case tar.TypeLink, tar.TypeSymlink:
			linkTarget, lerr := archivepath.NormalizeLinkTarget(h.Linkname)
			if lerr != nil {
				return lerr
			}
			if err := unlinkIfExists(dst); err != nil {
				return err
			}
			if linkTarget == "" {
				continue
			}
			absTarget := filepath.Join(targetDir, linkTarget)
			if h.Typeflag == tar.TypeSymlink {
				if e := os.Symlink(absTarget, dst); e != nil {
					return otaerr.Wrapf(e, otaerr.CodeFilesystem, "symlink %s -> %s: %s", dst, absTarget, e.Error())
				}
			} else {
				if e := os.Link(absTarget, dst); e != nil {
					return otaerr.Wrapf(e, otaerr.CodeFilesystem, "hardlink %s -> %s: %s", dst, absTarget, e.Error())
				}
			}
			continue
		}

		if err := unlinkIfExists(dst); err != nil {
			return err
		}
		if err := writeRegularFile(tr, dst, h, onBlock); err != nil {
			return err
		}
	}
}

func unlinkIfExists(path string) otaerr.Error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "stat %s: %s", path, err.Error())
	}
	if err := os.Remove(path); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "remove %s: %s", path, err.Error())
	}
	return nil
}

func writeRegularFile(r io.Reader, dst string, h *tar.Header, onBlock func(n int64)) otaerr.Error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, h.FileInfo().Mode())
	if err != nil {
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "open %s: %s", dst, err.Error())
	}
	defer f.Close()

	buf := make([]byte, blockSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return otaerr.Wrapf(werr, otaerr.CodeFilesystem, "write %s: %s", dst, werr.Error())
			}
			if onBlock != nil {
				onBlock(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return otaerr.Wrapf(rerr, otaerr.CodeTarFraming, "reading %s: %s", h.Name, rerr.Error())
		}
	}

	if err := os.Chmod(dst, h.FileInfo().Mode()); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "chmod %s: %s", dst, err.Error())
	}
	if err := os.Chtimes(dst, h.ModTime, h.ModTime); err != nil {
		return otaerr.Wrapf(err, otaerr.CodeFilesystem, "chtimes %s: %s", dst, err.Error())
	}

	return nil
}
