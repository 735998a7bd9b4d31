package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileTask_Satisfied(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")

	if err := os.WriteFile(input, []byte("a"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	ft := &FileTask{Output: output, Inputs: []string{input}}

	ok, err := ft.Satisfied()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("missing output must not be satisfied")
	}

	if err := os.WriteFile(output, []byte("b"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	now := time.Now()
	os.Chtimes(input, now, now)
	os.Chtimes(output, now.Add(time.Second), now.Add(time.Second))

	ok, err = ft.Satisfied()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected satisfied when output newer than input")
	}

	os.Chtimes(input, now.Add(2*time.Second), now.Add(2*time.Second))
	ok, err = ft.Satisfied()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected unsatisfied when input newer than output")
	}
}

func TestFileTask_MissingInputTreatedAsAlwaysOlder(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(output, []byte("x"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	ft := &FileTask{Output: output, Inputs: []string{filepath.Join(dir, "missing.txt")}}
	ok, err := ft.Satisfied()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("a missing input must not make an existing output stale")
	}
}

func TestNamedTask_NeverSatisfied(t *testing.T) {
	nt := &NamedTask{TaskName: "build"}
	ok, err := nt.Satisfied()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("named tasks must never report satisfied")
	}
}
