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

// Package iterator walks all k-mer windows of a DNA sequence as 2-bit
// codes. Each window yields the code of the k-mer and of its reverse
// complement, both derived from the previous window in O(1).
package iterator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shenwei356/kmers"
)

// ErrInvalidK means k < 1 or k > 32.
var ErrInvalidK = errors.New("k-mer iterator: invalid k-mer size (1 <= k <= 32)")

// ErrShortSeq means the sequence is shorter than k.
var ErrShortSeq = errors.New("k-mer iterator: sequence too short")

// ErrIllegalBase means a base beyond upper-case A/C/G/T was detected.
var ErrIllegalBase = errors.New("k-mer iterator: illegal base")

var poolIterator = &sync.Pool{New: func() interface{} {
	return &Iterator{}
}}

// Iterator is a nucleotide k-mer iterator.
type Iterator struct {
	s []byte
	k int

	finished bool
	idx      int

	length    int
	end, e    int
	first     bool
	kmer      []byte
	codeBase  uint64
	preCode   uint64
	preCodeRC uint64

	kP1   int    // k-1
	mask1 uint64 // (1<<((k-1)*2))-1
	mask2 uint   // (k-1)*2
}

// NewKmerIterator returns a k-mer code iterator for s.
// Only upper-case A/C/G/T are legal bases.
func NewKmerIterator(s []byte, k int) (*Iterator, error) {
	if k < 1 || k > 32 {
		return nil, ErrInvalidK
	}
	if len(s) < k {
		return nil, ErrShortSeq
	}

	iter := poolIterator.Get().(*Iterator)
	iter.s = s
	iter.k = k
	iter.finished = false
	iter.idx = 0

	iter.length = len(s)
	iter.end = iter.length - k + 1
	iter.kP1 = k - 1
	iter.mask1 = (1 << (uint(k-1) << 1)) - 1
	iter.mask2 = uint(k-1) << 1

	iter.first = true

	return iter, nil
}

// NextKmer returns the codes of the next window:
// code for the k-mer itself, codeRC for its reverse complement.
func (iter *Iterator) NextKmer() (code, codeRC uint64, ok bool, err error) {
	if iter.finished {
		return 0, 0, false, nil
	}

	if iter.idx == iter.end { // recycle the Iterator
		iter.finished = true
		poolIterator.Put(iter)
		return 0, 0, false, nil
	}

	iter.e = iter.idx + iter.k
	iter.kmer = iter.s[iter.idx:iter.e]

	if !iter.first {
		iter.codeBase = base2bit[iter.kmer[iter.kP1]]
		if iter.codeBase == 4 {
			return 0, 0, false, fmt.Errorf("%w: %q at position %d",
				ErrIllegalBase, iter.kmer[iter.kP1], iter.e-1)
		}

		// compute code from the previous one
		code = (iter.preCode&iter.mask1)<<2 | iter.codeBase

		// compute code of the revcomp k-mer from the previous one
		codeRC = (iter.codeBase^3)<<(iter.mask2) | (iter.preCodeRC >> 2)
	} else {
		code, err = kmers.Encode(iter.kmer)
		if err != nil {
			return 0, 0, false, fmt.Errorf("encode %s: %w", iter.kmer, ErrIllegalBase)
		}
		codeRC = kmers.MustRevComp(code, iter.k)
		iter.first = false
	}

	iter.preCode = code
	iter.preCodeRC = codeRC
	iter.idx++

	return code, codeRC, true, nil
}

// NextPositiveKmer returns the code of the next window on the
// positive strand only.
func (iter *Iterator) NextPositiveKmer() (code uint64, ok bool, err error) {
	if iter.finished {
		return 0, false, nil
	}

	if iter.idx == iter.end { // recycle the Iterator
		iter.finished = true
		poolIterator.Put(iter)
		return 0, false, nil
	}

	iter.e = iter.idx + iter.k
	iter.kmer = iter.s[iter.idx:iter.e]

	if !iter.first {
		iter.codeBase = base2bit[iter.kmer[iter.kP1]]
		if iter.codeBase == 4 {
			return 0, false, fmt.Errorf("%w: %q at position %d",
				ErrIllegalBase, iter.kmer[iter.kP1], iter.e-1)
		}

		code = (iter.preCode&iter.mask1)<<2 | iter.codeBase
	} else {
		code, err = kmers.Encode(iter.kmer)
		if err != nil {
			return 0, false, fmt.Errorf("encode %s: %w", iter.kmer, ErrIllegalBase)
		}
		iter.first = false
	}

	iter.preCode = code
	iter.idx++

	return code, true, nil
}

// Index returns the 0-based start position of the last returned window.
func (iter *Iterator) Index() int {
	return iter.idx - 1
}

// base2bit maps upper-case A/C/G/T to their 2-bit codes, everything
// else to 4. Unlike IUPAC-folding tables, degenerate and lower-case
// letters are rejected here.
var base2bit = func() [256]uint64 {
	var t [256]uint64
	for i := range t {
		t[i] = 4
	}
	t['A'] = 0
	t['C'] = 1
	t['G'] = 2
	t['T'] = 3
	return t
}()
