package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/skdltmxn/gothic-functions/internal/config"
	"github.com/skdltmxn/gothic-functions/signature"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Input", "1.txt"), "")
	writeFile(t, filepath.Join(dir, "Input", "extra", "1b.txt"), "")
	writeFile(t, filepath.Join(dir, "Input", "2.txt"), "")
	if err := os.MkdirAll(filepath.Join(dir, "Input", "dir.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		patterns []string
		want     []string
	}{
		{[]string{"Input/1.txt"}, []string{"Input/1.txt"}},
		{[]string{"Input/**/1*.txt"}, []string{"Input/1.txt", "Input/extra/1b.txt"}},
		{[]string{"Input/2.txt", "Input/*.txt", "Input/2.txt"}, []string{"Input/1.txt", "Input/2.txt"}},
		{[]string{"Input/9.txt"}, nil},
	}

	for _, tt := range tests {
		got, err := Discover(dir, tt.patterns)
		if err != nil {
			t.Fatalf("Discover(%v): %v", tt.patterns, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("Discover(%v) = %v, want %v", tt.patterns, got, tt.want)
			continue
		}
		for i, w := range tt.want {
			if got[i] != filepath.Join(dir, filepath.FromSlash(w)) {
				t.Errorf("Discover(%v)[%d] = %s, want %s", tt.patterns, i, got[i], w)
			}
		}
	}
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a\r\nb\n\nc"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "", "c"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("ReadLines = %q, want %q", lines, want)
	}
}

func TestParseLines(t *testing.T) {
	p, err := signature.NewParser(2)
	if err != nil {
		t.Fatal(err)
	}
	lines := []string{
		"0x00401000 public: int __thiscall zCVob::GetID(void)",
		"",
		"0x0040 public: void __thiscall zCVob::SetID(int)",
		"0x00401200 public: void __thiscall zCVob::SetID(int)",
	}

	var calls int
	res, err := ParseLines(context.Background(), p, lines, func() { calls++ })
	if err != nil {
		t.Fatal(err)
	}
	if calls != len(lines) {
		t.Errorf("progress called %d times, want %d", calls, len(lines))
	}
	if res.Version != 2 || len(res.Signatures) != 2 || len(res.Failures) != 2 {
		t.Fatalf("unexpected result: version %d, %d parsed, %d failed", res.Version, len(res.Signatures), len(res.Failures))
	}
	if res.Signatures[1].Addresses[1] != "0x00401200" {
		t.Errorf("address not stored in version slot: %q", res.Signatures[1].Addresses)
	}

	f := res.Failures[1]
	if f.Number != 3 || f.Err.Reason != signature.ReasonAddressNotFound {
		t.Errorf("unexpected failure %+v", f)
	}
	if res.Failures[0].Err.Reason != signature.ReasonConventionMissed {
		t.Errorf("blank line: unexpected reason %s", res.Failures[0].Err.Reason)
	}
}

func TestParseLines_Canceled(t *testing.T) {
	p, err := signature.NewParser(1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ParseLines(ctx, p, []string{"x"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPrepareRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Data", "Input", "1.txt"),
		"0x00401000 public: int __thiscall zCVob::GetID(void)\r\n0x00401200 public: void __thiscall zCVob::SetID(int)\r\n")
	writeFile(t, filepath.Join(dir, "Data", "Input", "3.txt"),
		"0x00501000 public: int __thiscall zCVob::GetID(void)\nnot a signature\n")

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Versions = []config.VersionConfig{cfg.Versions[2], cfg.Versions[0]}

	jobs, err := Prepare(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if TotalLines(jobs) != 4 {
		t.Errorf("TotalLines = %d, want 4", TotalLines(jobs))
	}

	var progress atomic.Int64
	results, err := Run(context.Background(), jobs, func() { progress.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	if progress.Load() != 4 {
		t.Errorf("progress = %d, want 4", progress.Load())
	}
	if len(results) != 2 || results[0].Version != 3 || results[1].Version != 1 {
		t.Fatalf("results not in job order")
	}
	if results[0].Name != "G2" || len(results[0].Signatures) != 1 || len(results[0].Failures) != 1 {
		t.Errorf("unexpected G2 result %+v", results[0])
	}
	if len(results[1].Signatures) != 2 || results[1].Signatures[1].Name != "SetID" {
		t.Errorf("unexpected G1 result %+v", results[1])
	}
}

func TestPrepare_NoInputs(t *testing.T) {
	cfg, err := config.LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Prepare(cfg); !errors.Is(err, ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
}

func TestWriteFailures(t *testing.T) {
	p, err := signature.NewParser(1)
	if err != nil {
		t.Fatal(err)
	}
	res, err := ParseLines(context.Background(), p, []string{"0x1 public: void __thiscall A::B(void)"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteFailures(&buf, res.Failures); err != nil {
		t.Fatal(err)
	}
	want := "0x1 public: void __thiscall A::B(void) [[Address not found]]\n"
	if buf.String() != want {
		t.Errorf("WriteFailures = %q, want %q", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}

	p, err := signature.NewParser(1)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := p.Build("0x00401000 public: int __thiscall zCVob::GetID(void)")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "Json", "1.json")
	if err := WriteFile(path, func(w io.Writer) error { return WriteJSON(w, []*signature.Signature{sig}) }); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []*signature.Signature
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || decoded[0].Qualified() != "zCVob::GetID" {
		t.Errorf("unexpected decoded records %+v", decoded)
	}
}
