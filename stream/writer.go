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
	"os"
	"strings"

	"github.com/anhhao17/ota-updater/otaerr"
)

// FileWriter opens, writes, and fsyncs a block-device or regular-file
// target. A /dev/ path is opened write-only with no O_CREAT/O_TRUNC (the
// device node already exists); a regular path is created and truncated.
type FileWriter struct {
	f *os.File
}

// OpenPartitionWriter opens path for raw installation, branching on
// whether it looks like a block-device node.
func OpenPartitionWriter(path string) (*FileWriter, otaerr.Error) {
	var (
		f   *os.File
		err error
	)

	if strings.HasPrefix(path, "/dev/") {
		f, err = os.OpenFile(path, os.O_WRONLY, 0)
	} else {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	}

	if err != nil {
		return nil, otaerr.Wrapf(err, otaerr.CodeFilesystem, "open %s: %s", path, err.Error())
	}

	return &FileWriter{f: f}, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *FileWriter) WriteAll(p []byte) error {
	_, err := w.f.Write(p)
	return err
}

func (w *FileWriter) FsyncNow() error {
	return w.f.Sync()
}

func (w *FileWriter) Close() error {
	return w.f.Close()
}
