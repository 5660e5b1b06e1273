package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

type testResult struct {
	Package string
	Test    string
	Action  string
	Elapsed float64
}

// summary consumes a go test -json stream and prints per test results.
type summary struct {
	out io.Writer

	mu      sync.Mutex
	buf     bytes.Buffer
	results []testResult
	output  map[string][]string
}

func newSummary(out io.Writer) *summary {
	return &summary{out: out, output: make(map[string][]string)}
}

func (s *summary) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(p)
	for {
		line, err := s.buf.ReadBytes('\n')
		if err != nil {
			// Keep the incomplete line for the next write.
			s.buf.Reset()
			s.buf.Write(line)
			break
		}
		s.consume(line)
	}
	return len(p), nil
}

// Flush consumes a trailing line without newline.
func (s *summary) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() > 0 {
		s.consume(s.buf.Bytes())
		s.buf.Reset()
	}
}

func (s *summary) consume(line []byte) {
	if !gjson.ValidBytes(line) {
		return
	}
	ev := gjson.ParseBytes(line)
	test := ev.Get("Test").String()
	if test == "" {
		return
	}
	key := ev.Get("Package").String() + " " + test

	switch action := ev.Get("Action").String(); action {
	case "output":
		s.output[key] = append(s.output[key], ev.Get("Output").String())
	case "pass", "fail", "skip":
		s.results = append(s.results, testResult{
			Package: ev.Get("Package").String(),
			Test:    test,
			Action:  action,
			Elapsed: ev.Get("Elapsed").Float(),
		})
	}
}

// Results returns the finished tests sorted by package and name.
func (s *summary) Results() []testResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := append([]testResult(nil), s.results...)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Package != results[j].Package {
			return results[i].Package < results[j].Package
		}
		return results[i].Test < results[j].Test
	})
	return results
}

// Print writes the results and the output of failed tests.
func (s *summary) Print() {
	results := s.Results()

	for _, r := range results {
		switch r.Action {
		case "pass":
			fmt.Fprintf(s.out, "%s %s (%.2fs)\n", color.GreenString("✓"), r.Test, r.Elapsed)
		case "skip":
			fmt.Fprintf(s.out, "%s %s\n", color.YellowString("-"), r.Test)
		case "fail":
			fmt.Fprintf(s.out, "%s %s (%.2fs)\n", color.RedString("✗"), r.Test, r.Elapsed)
			s.mu.Lock()
			out := s.output[r.Package+" "+r.Test]
			s.mu.Unlock()
			for _, line := range out {
				fmt.Fprintf(s.out, "    %s", strings.TrimLeft(line, " "))
			}
		}
	}

	counts := lo.CountValuesBy(results, func(r testResult) string { return r.Action })
	fmt.Fprintf(s.out, "\n%s passed, %s failed, %s skipped\n",
		color.GreenString("%d", counts["pass"]),
		color.RedString("%d", counts["fail"]),
		color.YellowString("%d", counts["skip"]),
	)
}
