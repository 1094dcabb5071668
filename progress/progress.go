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

// Package progress implements the install progress fan-out: a value-type
// Event, a file sink writing via atomic rename, and a console sink that
// repaints one line.
package progress

// Event is emitted on every progress tick. Zero totals mean "unknown".
type Event struct {
	Component    string
	CompDone     int64
	CompTotal    int64
	OverallDone  int64
	OverallTotal int64
}

// Sink receives progress events.
type Sink interface {
	Emit(e Event) error
}

func clampPercent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(done * 100 / total)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CompPercent is the clamped integer percent for the component, 0 when the
// total is unknown.
func (e Event) CompPercent() int {
	return clampPercent(e.CompDone, e.CompTotal)
}

// OverallPercent is the clamped integer percent for the whole run, 0 when
// the total is unknown.
func (e Event) OverallPercent() int {
	return clampPercent(e.OverallDone, e.OverallTotal)
}

// OverallKnown reports whether OverallTotal carries real information.
func (e Event) OverallKnown() bool {
	return e.OverallTotal > 0
}
