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

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"

	"kmerfreq"
)

var version = "0.1.0"

type record struct {
	id  string
	seq []byte
}

func main() {
	usage := fmt.Sprintf(`
This command analyzes DNA sequences: reverse complements, pattern counts
(a window matches the pattern or its reverse complement), and the most
frequent canonical k-mers.

Version: v%s
Usage: %s [options] [<fasta/q or plain-text genome file>]

Plain-text genome files may contain whitespace and lower-case bases,
both are normalized before the scan.

Options/Flags:
`, version, filepath.Base(os.Args[0]))

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	help := flag.Bool("h", false, "print help message")
	k := flag.Int("k", 0, "find most frequent canonical k-mers of this size")
	pattern := flag.String("p", "", "count occurrences of this pattern and its reverse complement")
	rc := flag.String("r", "", "print the reverse complement of this sequence and exit")
	threads := flag.Int("j", runtime.NumCPU(), "number of threads for the k-mer scan")
	output := flag.String("o", "-", "output file, \"-\" for stdout")
	quiet := flag.Bool("q", false, "no progress bar or timing messages")
	pfCPU := flag.Bool("pprof-cpu", false, "pprofile CPU")
	pfMEM := flag.Bool("pprof-mem", false, "pprofile memory")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	// go tool pprof -http=:8080 cpu.pprof
	if *pfCPU {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *pfMEM {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	outfh, err := xopen.Wopen(*output)
	checkError(err)
	defer outfh.Close()

	if *rc != "" {
		out, err := kmerfreq.RevComp(bytes.ToUpper([]byte(*rc)))
		checkError(err)
		fmt.Fprintf(outfh, "%s\n", out)
		return
	}

	if *k <= 0 && *pattern == "" {
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() < 1 {
		checkError(fmt.Errorf("a genome file is needed"))
	}
	if *threads <= 0 {
		*threads = runtime.NumCPU()
	}
	kmerfreq.Threads = *threads

	records, err := readGenomes(flag.Arg(0))
	checkError(err)
	if len(records) == 0 {
		checkError(fmt.Errorf("no sequences found in %s", flag.Arg(0)))
	}

	var bar *mpb.Bar
	var pb *mpb.Progress
	if !*quiet && len(records) > 1 {
		pb = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pb.AddBar(int64(len(records)),
			mpb.PrependDecorators(decor.Name("records ")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
	}

	sTime := time.Now()

	var pat []byte
	if *pattern != "" {
		pat = bytes.ToUpper([]byte(*pattern))
	}

	for _, r := range records {
		if pat != nil {
			n, err := kmerfreq.CountPattern(r.seq, pat)
			checkError(err)
			fmt.Fprintf(outfh, "%s\t%s\t%d\n", r.id, pat, n)
		}

		if *k > 0 {
			var t *kmerfreq.Table
			if *threads > 1 {
				t, err = kmerfreq.CountKmersParallel(r.seq, *k)
			} else {
				t, err = kmerfreq.CountKmers(r.seq, *k)
			}
			checkError(err)

			max := t.MaxCount()
			for _, mer := range t.MostFrequent() {
				fmt.Fprintf(outfh, "%s\t%s\t%d\n", r.id, mer, max)
			}
		}

		if bar != nil {
			bar.Increment()
		}
	}

	if pb != nil {
		pb.Wait()
	}
	if !*quiet {
		log.Printf("finished scanning %d sequences in %s", len(records), time.Since(sTime))
	}
}

// readGenomes loads all sequences from a FASTA/Q file, or from a
// plain-text genome file (whitespace stripped). Bases are upper-cased.
func readGenomes(file string) ([]record, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 1)
	_, err = io.ReadFull(fh, buf)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	if buf[0] == '>' || buf[0] == '@' { // FASTA/Q
		fh.Close()
		return readFastx(file)
	}

	data, err := io.ReadAll(fh)
	fh.Close()
	if err != nil {
		return nil, err
	}
	data = append(buf, data...)

	genome := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
		default:
			genome = append(genome, b)
		}
	}
	genome = bytes.ToUpper(genome)
	if !kmerfreq.IsValidDNA(genome) {
		return nil, fmt.Errorf("invalid genome sequence in %s", file)
	}
	return []record{{id: filepath.Base(file), seq: genome}}, nil
}

func readFastx(file string) ([]record, error) {
	seq.ValidateSeq = false
	reader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, err
	}

	var records []record
	var r *fastx.Record
	for {
		r, err = reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		s := bytes.ToUpper(r.Seq.Seq)
		if !kmerfreq.IsValidDNA(s) {
			return nil, fmt.Errorf("invalid genome sequence in record %s", r.ID)
		}
		records = append(records, record{id: string(r.ID), seq: s})
	}
	return records, nil
}

func checkError(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
