package cli

import "testing"

func TestParseVars_SplitsOnFirstEquals(t *testing.T) {
	vars, err := parseVars([]string{"NAME=widget", "PATH=/a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vars["NAME"] != "widget" {
		t.Fatalf("got %q", vars["NAME"])
	}
	if vars["PATH"] != "/a=b" {
		t.Fatalf("got %q", vars["PATH"])
	}
}

func TestParseVars_RejectsMissingEquals(t *testing.T) {
	if _, err := parseVars([]string{"NOVALUE"}); err == nil {
		t.Fatal("expected an error for an entry with no '='")
	}
}

func TestExitCodeFor_UsageErrorMapsToTwo(t *testing.T) {
	err := usageError("bad flag")
	if got := exitCodeFor(err); got != ExitInvalidUsage {
		t.Fatalf("got %d, want %d", got, ExitInvalidUsage)
	}
}

func TestExitCodeFor_OtherErrorMapsToOne(t *testing.T) {
	if got := exitCodeFor(errPlain("boom")); got != ExitFailure {
		t.Fatalf("got %d, want %d", got, ExitFailure)
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
