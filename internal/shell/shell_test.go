// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := NewRunner(t.TempDir(), nil)
	r.Stdin = nil
	r.Stdout = &out
	r.Stderr = &out
	return r, &out
}

func TestScript_Pipeline(t *testing.T) {
	t.Parallel()
	r, out := newTestRunner(t)

	if err := r.Script(context.Background(), `echo "site.pp" | tr a-z A-Z`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "SITE.PP\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestScript_ExitStatus(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t)

	err := r.Script(context.Background(), "exit 3")
	var exitErr *ExitStatusError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitStatusError, got %T: %v", err, err)
	}
	if exitErr.Code != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.Code)
	}
	if !errors.Is(err, ErrCommandFailed) {
		t.Error("expected errors.Is(ErrCommandFailed)")
	}
}

func TestScript_ParseError(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t)
	if err := r.Script(context.Background(), "if then"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestScript_RunsInDir(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t)
	if err := r.Script(context.Background(), "echo hi > marker"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.Dir, "marker")); err != nil {
		t.Errorf("expected marker in runner dir: %v", err)
	}
}

func TestExec_MissingBinary(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t)
	err := r.Exec(context.Background(), "henchman-definitely-not-installed")
	if err == nil {
		t.Fatal("expected error")
	}
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) {
		t.Errorf("a missing binary is not an exit status: %v", err)
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	if got := Quote("plain"); got != "plain" {
		t.Errorf("Quote(plain) = %q", got)
	}
	if got := Quote("it's here"); got == "it's here" {
		t.Errorf("Quote must escape, got %q", got)
	}
}
