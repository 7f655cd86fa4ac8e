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

// Package kmerfreq counts canonical k-mers in DNA sequences.
// A k-mer and its reverse complement are treated as the same motif:
// every window of the genome is tallied under its canonical form,
// the lexicographically smaller of the k-mer and its reverse complement.
package kmerfreq

import (
	"bytes"
	"errors"
	"runtime"
	"sync"

	"kmerfreq/iterator"
)

// ErrInvalidBase means a byte outside of A/C/G/T was found.
var ErrInvalidBase = errors.New("kmerfreq: invalid base, expecting A/C/G/T")

// ErrInvalidK means k < 1 or k > len(genome).
var ErrInvalidK = errors.New("kmerfreq: invalid k, valid range is [1, len(genome)]")

// ErrPatternLength means the pattern is empty or longer than the genome.
var ErrPatternLength = errors.New("kmerfreq: invalid pattern length, valid range is [1, len(genome)]")

// ErrKMismatch means two frequency tables with different k values were merged.
var ErrKMismatch = errors.New("kmerfreq: merging tables with different k values")

// Threads is the number of goroutines used by CountKmersParallel.
var Threads = runtime.NumCPU()

// k-mers up to this length fit a 2-bit code in a uint64.
const maxCodeK = 32

// CountKmers scans all len(genome)-k+1 windows of the genome and tallies
// the canonical form of each window in a fresh frequency table.
// The sum of all counts equals the number of windows.
//
// Windows of up to 32 bases are tallied as 2-bit codes with O(1) rolling
// updates; longer windows fall back to byte-string keys.
func CountKmers(genome []byte, k int) (*Table, error) {
	if k < 1 || k > len(genome) {
		return nil, ErrInvalidK
	}
	if err := checkDNA(genome); err != nil {
		return nil, err
	}

	t := newTable(k)
	t.windows = len(genome) - k + 1

	if k <= maxCodeK {
		iter, err := iterator.NewKmerIterator(genome, k)
		if err != nil {
			return nil, err
		}
		var code, codeRC uint64
		var ok bool
		for {
			code, codeRC, ok, err = iter.NextKmer()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}

			// the 2-bit encoding preserves lexicographic order,
			// so the canonical form is simply the smaller code
			if codeRC < code {
				code = codeRC
			}
			t.codes[code]++
		}
		return t, nil
	}

	rc := make([]byte, k)
	end := len(genome) - k
	for i := 0; i <= end; i++ {
		w := genome[i : i+k]
		revCompInto(rc, w)
		if bytes.Compare(w, rc) <= 0 {
			t.seqs[string(w)]++
		} else {
			t.seqs[string(rc)]++
		}
	}
	return t, nil
}

// CountKmersParallel is CountKmers with the genome split into Threads
// chunks overlapping by k-1 bases, tallied concurrently and merged by
// summing counts per canonical k-mer. Results are identical to the
// serial scan.
func CountKmersParallel(genome []byte, k int) (*Table, error) {
	if k < 1 || k > len(genome) {
		return nil, ErrInvalidK
	}
	if err := checkDNA(genome); err != nil {
		return nil, err
	}

	n := Threads
	windows := len(genome) - k + 1
	if n > windows {
		n = windows
	}
	if n <= 1 {
		return CountKmers(genome, k)
	}

	tables := make([]*Table, n)
	per := windows / n
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		start := i * per
		endWindow := start + per
		if i == n-1 {
			endWindow = windows
		}
		// windows [start, endWindow) cover bytes [start, endWindow-1+k)
		sub := genome[start : endWindow-1+k]

		wg.Add(1)
		go func(i int, sub []byte) {
			defer wg.Done()
			// inputs were validated above, the scan cannot fail
			tables[i], _ = CountKmers(sub, k)
		}(i, sub)
	}
	wg.Wait()

	t := tables[0]
	for _, o := range tables[1:] {
		if err := t.Merge(o); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FrequentKmers returns all canonical k-mers with the maximum tally,
// sorted lexicographically. The result is never empty when the genome
// has at least one window of length k.
func FrequentKmers(genome []byte, k int) ([][]byte, error) {
	t, err := CountKmers(genome, k)
	if err != nil {
		return nil, err
	}
	return t.MostFrequent(), nil
}
