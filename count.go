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
	"bytes"

	"github.com/shenwei356/kmers"

	"kmerfreq/iterator"
)

// CountPattern counts the windows of the genome that equal the pattern or
// its reverse complement. Each window is tested once, so occurrences of a
// palindromic pattern are never double-counted.
//
// It returns ErrPatternLength unless 1 <= len(pattern) <= len(genome),
// and ErrInvalidBase if either input contains a byte outside of A/C/G/T.
func CountPattern(genome, pattern []byte) (int, error) {
	if len(pattern) < 1 || len(pattern) > len(genome) {
		return 0, ErrPatternLength
	}
	if err := checkDNA(pattern); err != nil {
		return 0, err
	}
	if err := checkDNA(genome); err != nil {
		return 0, err
	}

	if len(pattern) <= maxCodeK {
		return countPatternCode(genome, pattern)
	}

	// long patterns do not fit a 2-bit code, compare windows bytewise
	rc := MustRevComp(pattern)
	count := 0
	end := len(genome) - len(pattern)
	for i := 0; i <= end; i++ {
		w := genome[i : i+len(pattern)]
		if bytes.Equal(w, pattern) || bytes.Equal(w, rc) {
			count++
		}
	}
	return count, nil
}

// countPatternCode compares rolling 2-bit window codes against the codes
// of the pattern and its reverse complement.
func countPatternCode(genome, pattern []byte) (int, error) {
	pat, err := kmers.Encode(pattern)
	if err != nil {
		return 0, ErrInvalidBase
	}
	rc := kmers.MustRevComp(pat, len(pattern))

	iter, err := iterator.NewKmerIterator(genome, len(pattern))
	if err != nil {
		return 0, err
	}

	count := 0
	var code uint64
	var ok bool
	for {
		code, ok, err = iter.NextPositiveKmer()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if code == pat || code == rc {
			count++
		}
	}
	return count, nil
}
