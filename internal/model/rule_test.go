package model

import "testing"

func TestRule_WildcardMatchesAndSubstitutesStem(t *testing.T) {
	r, err := NewRule("%.o", []string{"%.c"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.Matches("foo.o") {
		t.Fatalf("expected %q to match", "foo.o")
	}
	if r.Matches("foo.c") {
		t.Fatalf("did not expect %q to match", "foo.c")
	}

	ft, ok := r.CreateTask("foo.o")
	if !ok {
		t.Fatalf("expected rule to synthesize a task for foo.o")
	}
	if ft.Name() != "foo.o" {
		t.Fatalf("unexpected output name: %s", ft.Name())
	}
	if len(ft.Inputs) != 1 || ft.Inputs[0] != "foo.c" {
		t.Fatalf("unexpected inputs: %v", ft.Inputs)
	}
}

func TestRule_LiteralMatchesOnlyItself(t *testing.T) {
	r, err := NewRule("clean", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Matches("clean") {
		t.Fatalf("expected literal rule to match its own name")
	}
	if r.Matches("cleanup") {
		t.Fatalf("literal rule must not match a longer name")
	}
}

func TestRule_RejectsNameShorterThanPrefixPlusSuffix(t *testing.T) {
	r, err := NewRule("lib%.a", []string{"%.o"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Matches("lib.a") {
		t.Fatalf("name equal to prefix+suffix with empty stem should still match")
	}
	if r.Matches("li.a") {
		t.Fatalf("name shorter than prefix+suffix must not match")
	}
}

func TestRule_RejectsMultipleWildcards(t *testing.T) {
	if _, err := NewRule("%.%", nil, nil); err == nil {
		t.Fatalf("expected error for pattern with two wildcards")
	}
}
