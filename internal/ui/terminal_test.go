package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestCountLines(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  int
	}{
		{"empty", "", 80, 0},
		{"single", "hello", 80, 1},
		{"trailing newline", "hello\n", 80, 1},
		{"blank line counts", "a\n\nb", 80, 3},
		{"wraps", strings.Repeat("x", 25), 10, 3},
		{"exact width", strings.Repeat("x", 10), 10, 1},
		{"escape sequences ignored", "\x1b[1m" + strings.Repeat("x", 10) + "\x1b[0m", 10, 1},
		{"no width", strings.Repeat("x", 200), 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountLines(tc.in, tc.width); got != tc.want {
				t.Errorf("CountLines(%q, %d) = %d, want %d", tc.in, tc.width, got, tc.want)
			}
		})
	}
}

func TestRepainter(t *testing.T) {
	var buf bytes.Buffer
	r := NewRepainter(&buf, 80)

	if err := r.Paint("one\ntwo"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "one\ntwo\n" {
		t.Fatalf("first paint = %q", got)
	}

	buf.Reset()
	if err := r.Paint("three"); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "\x1b[2A") {
		t.Errorf("second paint should move up two lines: %q", got)
	}
	if !strings.HasSuffix(got, "three\n") {
		t.Errorf("second paint missing frame: %q", got)
	}

	r.Forget()
	buf.Reset()
	if err := r.Paint("four"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "four\n" {
		t.Errorf("paint after Forget = %q, want no erase", got)
	}
}
