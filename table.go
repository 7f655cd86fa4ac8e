// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package kmerfreq

import (
	"github.com/shenwei356/kmers"
	"github.com/twotwotwo/sorts/sortutil"
)

// Table is a frequency table of canonical k-mers, built fresh per scan.
// For k <= 32 the keys are 2-bit codes, for larger k they are strings.
// A Table is not safe for concurrent mutation.
type Table struct {
	// K value
	K int

	codes map[uint64]int // canonical code -> count, k <= 32
	seqs  map[string]int // canonical k-mer -> count, k > 32

	windows int // total number of windows tallied
}

func newTable(k int) *Table {
	t := &Table{K: k}
	if k <= maxCodeK {
		t.codes = make(map[uint64]int, 1024)
	} else {
		t.seqs = make(map[string]int, 1024)
	}
	return t
}

// Len returns the number of distinct canonical k-mers.
func (t *Table) Len() int {
	if t.codes != nil {
		return len(t.codes)
	}
	return len(t.seqs)
}

// Windows returns the total number of windows tallied,
// which equals the sum of all counts.
func (t *Table) Windows() int {
	return t.windows
}

// Count returns the tally of a k-mer, looked up under its canonical form.
// A k-mer and its reverse complement always report the same count.
func (t *Table) Count(kmer []byte) (int, error) {
	if len(kmer) != t.K {
		return 0, ErrKMismatch
	}
	if t.codes != nil {
		code, err := kmers.Encode(kmer)
		if err != nil {
			return 0, ErrInvalidBase
		}
		if codeRC := kmers.MustRevComp(code, t.K); codeRC < code {
			code = codeRC
		}
		return t.codes[code], nil
	}

	c, err := Canonical(kmer)
	if err != nil {
		return 0, err
	}
	return t.seqs[string(c)], nil
}

// MaxCount returns the largest tally in the table, 0 if the table is empty.
func (t *Table) MaxCount() int {
	max := 0
	if t.codes != nil {
		for _, c := range t.codes {
			if c > max {
				max = c
			}
		}
		return max
	}
	for _, c := range t.seqs {
		if c > max {
			max = c
		}
	}
	return max
}

// MostFrequent returns all canonical k-mers whose count equals MaxCount,
// sorted lexicographically. It returns nil for an empty table.
func (t *Table) MostFrequent() [][]byte {
	max := t.MaxCount()
	if max == 0 {
		return nil
	}

	if t.codes != nil {
		top := make([]uint64, 0, 8)
		for code, c := range t.codes {
			if c == max {
				top = append(top, code)
			}
		}
		// code order is lexicographic order for equal k
		sortutil.Uint64s(top)

		mers := make([][]byte, len(top))
		for i, code := range top {
			mers[i] = kmers.MustDecode(code, t.K)
		}
		return mers
	}

	top := make([]string, 0, 8)
	for mer, c := range t.seqs {
		if c == max {
			top = append(top, mer)
		}
	}
	sortutil.Strings(top)

	mers := make([][]byte, len(top))
	for i, mer := range top {
		mers[i] = []byte(mer)
	}
	return mers
}

// Merge adds all counts of o into t. Both tables must have the same K.
// Merging is associative and commutative, so tables tallied from genome
// chunks overlapping by K-1 bases sum to the table of the whole genome.
func (t *Table) Merge(o *Table) error {
	if t.K != o.K {
		return ErrKMismatch
	}
	if t.codes != nil {
		for code, c := range o.codes {
			t.codes[code] += c
		}
	} else {
		for mer, c := range o.seqs {
			t.seqs[mer] += c
		}
	}
	t.windows += o.windows
	return nil
}
