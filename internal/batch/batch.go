// Package batch drives the parser over the signature dumps of every
// configured toolchain build.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tliron/commonlog"

	"github.com/skdltmxn/gothic-functions/internal/config"
	"github.com/skdltmxn/gothic-functions/signature"
)

var log = commonlog.GetLogger("gfuncs.batch")

// ErrNoInputs indicates that a version's patterns matched no file.
var ErrNoInputs = errors.New("batch: no input files")

// Job is the input of one build.
type Job struct {
	Version int
	Name    string
	Files   []string
	Lines   []string
}

// Failure is a line the parser rejected.
type Failure struct {
	Number int // 1-based line number across the job's files
	Line   string
	Err    *signature.ParseError
}

// Result is the outcome of one job.
type Result struct {
	Version    int
	Name       string
	Signatures []*signature.Signature
	Failures   []Failure
}

// Discover expands doublestar patterns relative to dataDir and returns the
// matching files, sorted and without duplicates.
func Discover(dataDir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(dataDir)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("batch: pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			files = append(files, filepath.Join(dataDir, filepath.FromSlash(m)))
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ReadLines reads r line by line, dropping line terminators.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}

// Prepare discovers and reads the inputs of every configured version.
func Prepare(cfg *config.Config) ([]*Job, error) {
	jobs := make([]*Job, 0, len(cfg.Versions))
	for _, v := range cfg.Versions {
		files, err := Discover(cfg.DataDir, v.Inputs)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: version %s (%s)", ErrNoInputs, cfg.VersionName(v.Index), strings.Join(v.Inputs, ", "))
		}

		job := &Job{Version: v.Index, Name: cfg.VersionName(v.Index), Files: files}
		for _, path := range files {
			lines, err := readFile(path)
			if err != nil {
				return nil, fmt.Errorf("batch: failed to read %s: %w", path, err)
			}
			job.Lines = append(job.Lines, lines...)
		}
		log.Debugf("version %s: %d lines from %d file(s)", job.Name, len(job.Lines), len(files))
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// TotalLines counts the lines of all jobs.
func TotalLines(jobs []*Job) int {
	n := 0
	for _, j := range jobs {
		n += len(j.Lines)
	}
	return n
}

// ParseLines builds every line with p. progress, if non-nil, is called once
// per line. Parsing stops early when ctx is done.
func ParseLines(ctx context.Context, p *signature.Parser, lines []string, progress func()) (*Result, error) {
	res := &Result{Version: p.Version()}
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig, err := p.Build(line)
		if err != nil {
			var pe *signature.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			res.Failures = append(res.Failures, Failure{Number: i + 1, Line: line, Err: pe})
		} else {
			res.Signatures = append(res.Signatures, sig)
		}

		if progress != nil {
			progress()
		}
	}
	return res, nil
}

// Run parses every job concurrently, one goroutine per job. Results are
// returned in job order. progress must be safe for concurrent use.
func Run(ctx context.Context, jobs []*Job, progress func()) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		i, job := i, job
		p, err := signature.NewParser(job.Version)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ParseLines(ctx, p, job.Lines, progress)
			if err != nil {
				errs[i] = fmt.Errorf("batch: version %s: %w", job.Name, err)
				return
			}
			res.Name = job.Name
			results[i] = res
			log.Infof("version %s: %d parsed, %d failed", job.Name, len(res.Signatures), len(res.Failures))
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteFailures writes one "line [[diagnostic]]" entry per failure.
func WriteFailures(w io.Writer, failures []Failure) error {
	bw := bufio.NewWriter(w)
	for _, f := range failures {
		if _, err := fmt.Fprintf(bw, "%s [[%s]]\n", f.Line, f.Err.Diagnostic()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSON writes sigs as an indented JSON array.
func WriteJSON(w io.Writer, sigs []*signature.Signature) error {
	if sigs == nil {
		sigs = []*signature.Signature{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sigs)
}

// WriteFile creates path and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
