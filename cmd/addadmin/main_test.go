package main

import (
	"strings"
	"testing"
)

func TestReadPasswordFromPipe(t *testing.T) {
	got, err := readPassword(strings.NewReader("s3cretpass\n"))
	if err != nil {
		t.Fatalf("read password: %v", err)
	}
	if got != "s3cretpass" {
		t.Fatalf("unexpected password %q", got)
	}
}

func TestRunRequiresUsername(t *testing.T) {
	err := run(nil, strings.NewReader(""), &strings.Builder{}, &strings.Builder{})
	if err == nil || !strings.Contains(err.Error(), "missing required flags") {
		t.Fatalf("expected missing flags error, got %v", err)
	}
}

func TestRunRejectsUnknownRole(t *testing.T) {
	err := run([]string{"-user", "x", "-role", "superuser", "-password", "pass1234"},
		strings.NewReader(""), &strings.Builder{}, &strings.Builder{})
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Fatalf("expected unknown role error, got %v", err)
	}
}

func TestRunRejectsShortPassword(t *testing.T) {
	err := run([]string{"-user", "x", "-password", "short"},
		strings.NewReader(""), &strings.Builder{}, &strings.Builder{})
	if err == nil || !strings.Contains(err.Error(), "at least 8 characters") {
		t.Fatalf("expected short password error, got %v", err)
	}
}
