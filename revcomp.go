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
	"fmt"
)

// complement maps a base to its Watson-Crick partner.
// Zero means the byte is not a valid base.
// Only upper-case A/C/G/T are accepted, case folding is up to the caller.
var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
}

// IsValidDNA reports whether every byte of seq is one of A/C/G/T.
// An empty sequence is valid.
func IsValidDNA(seq []byte) bool {
	for _, b := range seq {
		if complement[b] == 0 {
			return false
		}
	}
	return true
}

// checkDNA returns ErrInvalidBase with the position of the first
// offending byte, or nil if seq is pure A/C/G/T.
func checkDNA(seq []byte) error {
	for i, b := range seq {
		if complement[b] == 0 {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidBase, b, i)
		}
	}
	return nil
}

// RevComp returns the reverse complement of seq as a new slice.
// It returns ErrInvalidBase if seq contains a byte outside of A/C/G/T.
func RevComp(seq []byte) ([]byte, error) {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidBase, seq[n-1-i], n-1-i)
		}
		out[i] = c
	}
	return out, nil
}

// MustRevComp is like RevComp but assumes seq has been validated.
// Invalid bases are complemented to 0.
func MustRevComp(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = complement[seq[n-1-i]]
	}
	return out
}

// revCompInto writes the reverse complement of seq into dst,
// which must be of the same length. seq must be validated.
func revCompInto(dst, seq []byte) {
	n := len(seq)
	for i := 0; i < n; i++ {
		dst[i] = complement[seq[n-1-i]]
	}
}

// Canonical returns the canonical form of a k-mer: the lexicographically
// smaller of the k-mer and its reverse complement (A < C < G < T, which is
// plain byte order). A palindromic k-mer is its own canonical form.
func Canonical(kmer []byte) ([]byte, error) {
	rc, err := RevComp(kmer)
	if err != nil {
		return nil, err
	}
	if bytes.Compare(kmer, rc) <= 0 {
		return kmer, nil
	}
	return rc, nil
}
