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
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestFrequentKmers(t *testing.T) {
	// windows: ACG CGT GTA TAC ACG CGT GTA TAC,
	// canonical forms: ACG ACG GTA GTA ACG ACG GTA GTA
	mers, err := FrequentKmers([]byte("ACGTACGTAC"), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]byte{[]byte("ACG"), []byte("GTA")}
	if !reflect.DeepEqual(mers, want) {
		t.Errorf("FrequentKmers(ACGTACGTAC, 3) = %s, want %s", mers, want)
	}

	table, err := CountKmers([]byte("ACGTACGTAC"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if table.MaxCount() != 4 {
		t.Errorf("MaxCount = %d, want 4", table.MaxCount())
	}
	if table.Windows() != 8 {
		t.Errorf("Windows = %d, want 8", table.Windows())
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}
}

// a genome of length k has exactly one window, tallied under its
// canonical form
func TestFrequentKmersSingleWindow(t *testing.T) {
	tests := []struct {
		genome string
		k      int
		want   string
	}{
		{"TTT", 3, "AAA"},
		{"ACGT", 4, "ACGT"},
		{"G", 1, "C"},
	}
	for _, test := range tests {
		mers, err := FrequentKmers([]byte(test.genome), test.k)
		if err != nil {
			t.Errorf("FrequentKmers(%q, %d): %s", test.genome, test.k, err)
			continue
		}
		if len(mers) != 1 || string(mers[0]) != test.want {
			t.Errorf("FrequentKmers(%q, %d) = %s, want [%s]", test.genome, test.k, mers, test.want)
		}
	}
}

func TestCountKmersErrors(t *testing.T) {
	genome := []byte("ACGTACGTAC")

	for _, k := range []int{0, -1, 11} {
		if _, err := CountKmers(genome, k); !errors.Is(err, ErrInvalidK) {
			t.Errorf("CountKmers(genome, %d): error = %v, want ErrInvalidK", k, err)
		}
	}
	if _, err := CountKmers([]byte("ACGTN"), 3); !errors.Is(err, ErrInvalidBase) {
		t.Errorf("invalid genome: error = %v, want ErrInvalidBase", err)
	}
	if _, err := CountKmersParallel(genome, 0); !errors.Is(err, ErrInvalidK) {
		t.Errorf("CountKmersParallel: error = %v, want ErrInvalidK", err)
	}
}

// naive reference: tally Canonical of every window in a string map
func countKmersNaive(genome []byte, k int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+k <= len(genome); i++ {
		c, _ := Canonical(genome[i : i+k])
		counts[string(c)]++
	}
	return counts
}

func TestCountKmersAgainstNaive(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	genome := randDNA(r, 300)

	for _, k := range []int{1, 2, 3, 7, 15, 31, 32, 33, 40, 64} {
		table, err := CountKmers(genome, k)
		if err != nil {
			t.Fatalf("k=%d: %s", k, err)
		}
		want := countKmersNaive(genome, k)

		if table.Len() != len(want) {
			t.Fatalf("k=%d: Len = %d, want %d", k, table.Len(), len(want))
		}
		sum := 0
		for mer, c := range want {
			got, err := table.Count([]byte(mer))
			if err != nil {
				t.Fatal(err)
			}
			if got != c {
				t.Fatalf("k=%d: Count(%s) = %d, want %d", k, mer, got, c)
			}
			sum += c
		}
		// every window contributes to exactly one canonical bucket
		if sum != table.Windows() || table.Windows() != len(genome)-k+1 {
			t.Fatalf("k=%d: sum of counts = %d, windows = %d, want %d",
				k, sum, table.Windows(), len(genome)-k+1)
		}
	}
}

func TestCountKmersParallel(t *testing.T) {
	old := Threads
	Threads = 4
	defer func() { Threads = old }()

	r := rand.New(rand.NewSource(6))
	for _, k := range []int{3, 9, 33} {
		genome := randDNA(r, 10000)

		serial, err := CountKmers(genome, k)
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := CountKmersParallel(genome, k)
		if err != nil {
			t.Fatal(err)
		}

		if serial.Windows() != parallel.Windows() {
			t.Fatalf("k=%d: windows %d != %d", k, serial.Windows(), parallel.Windows())
		}
		if serial.Len() != parallel.Len() {
			t.Fatalf("k=%d: distinct k-mers %d != %d", k, serial.Len(), parallel.Len())
		}
		if serial.MaxCount() != parallel.MaxCount() {
			t.Fatalf("k=%d: max count %d != %d", k, serial.MaxCount(), parallel.MaxCount())
		}
		if !reflect.DeepEqual(serial.MostFrequent(), parallel.MostFrequent()) {
			t.Fatalf("k=%d: MostFrequent differs between serial and parallel scans", k)
		}
	}
}

func TestTableCount(t *testing.T) {
	table, err := CountKmers([]byte("ACGTACGTAC"), 3)
	if err != nil {
		t.Fatal(err)
	}

	// a k-mer and its revcomp share one canonical bucket
	for _, mer := range []string{"ACG", "CGT"} {
		n, err := table.Count([]byte(mer))
		if err != nil {
			t.Fatal(err)
		}
		if n != 4 {
			t.Errorf("Count(%s) = %d, want 4", mer, n)
		}
	}

	n, err := table.Count([]byte("GGG"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count(GGG) = %d, want 0", n)
	}

	if _, err := table.Count([]byte("ACGT")); !errors.Is(err, ErrKMismatch) {
		t.Errorf("Count with wrong length: error = %v, want ErrKMismatch", err)
	}
}

func TestTableMerge(t *testing.T) {
	genome := []byte("ACGTACGTACGTTGCA")
	k := 3

	full, err := CountKmers(genome, k)
	if err != nil {
		t.Fatal(err)
	}

	// chunks overlapping by k-1 bases cover each window exactly once
	cut := 8
	left, err := CountKmers(genome[:cut+k-1], k)
	if err != nil {
		t.Fatal(err)
	}
	right, err := CountKmers(genome[cut:], k)
	if err != nil {
		t.Fatal(err)
	}
	if err := left.Merge(right); err != nil {
		t.Fatal(err)
	}

	if left.Windows() != full.Windows() || left.Len() != full.Len() {
		t.Fatalf("merged table: windows %d, distinct %d; want %d, %d",
			left.Windows(), left.Len(), full.Windows(), full.Len())
	}
	if !reflect.DeepEqual(left.MostFrequent(), full.MostFrequent()) {
		t.Errorf("merged MostFrequent = %s, want %s", left.MostFrequent(), full.MostFrequent())
	}

	other, err := CountKmers(genome, k+1)
	if err != nil {
		t.Fatal(err)
	}
	if err := full.Merge(other); !errors.Is(err, ErrKMismatch) {
		t.Errorf("merging different k: error = %v, want ErrKMismatch", err)
	}
}

func TestFrequentKmersDeterministicOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	genome := randDNA(r, 500)

	mers, err := FrequentKmers(genome, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(mers); i++ {
		if bytes.Compare(mers[i-1], mers[i]) >= 0 {
			t.Fatalf("result not sorted: %s before %s", mers[i-1], mers[i])
		}
	}
}
