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

package progress

import (
	"encoding/json"
	"os"
)

// FileSink writes each event as JSON to path, via write-tmp-then-rename so
// readers never observe a partial file.
type FileSink struct {
	path string
}

// NewFileSink targets path for atomic progress writes.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

type fileSinkPayload struct {
	Component        string `json:"component"`
	ComponentPercent int    `json:"component_percent"`
	OverallPercent   int    `json:"overall_percent"`
}

// Emit serializes e and atomically replaces the sink's target file.
func (f *FileSink) Emit(e Event) error {
	payload := fileSinkPayload{
		Component:        e.Component,
		ComponentPercent: e.CompPercent(),
		OverallPercent:   e.OverallPercent(),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
