package highlight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestHighlight_NotLoaded(t *testing.T) {
	h := New("")
	if _, err := h.Highlight("x := 1", "go"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err=%v, want ErrNotLoaded", err)
	}
	if h.Loaded() {
		t.Error("fresh highlighter reports loaded")
	}
}

func TestHighlight_ClassPrefixAndEscaping(t *testing.T) {
	h := New("monokai")
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := h.Highlight(`if a < b { return "x" }`, "go")
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if !strings.Contains(out, `class="hljs-`) {
		t.Errorf("missing hljs- token classes: %q", out)
	}
	if strings.Contains(out, "<pre") {
		t.Errorf("output must not carry its own pre: %q", out)
	}
	if strings.Contains(out, "a < b") || !strings.Contains(out, "&lt;") {
		t.Errorf("code not escaped: %q", out)
	}
}

func TestHighlight_UnknownLanguageFallsBack(t *testing.T) {
	h := New("")
	if err := h.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	out, err := h.Highlight("hello <world>", "no-such-language")
	if err != nil {
		t.Fatalf("unknown language must not fail: %v", err)
	}
	if !strings.Contains(out, "&lt;") {
		t.Errorf("fallback output not escaped: %q", out)
	}
}

func TestLoad_SharedInflight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	h := New("", WithLoadHook(func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.Load(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Load: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("load ran %d times, want 1", n)
	}
	if !h.Loaded() {
		t.Error("not loaded after Load")
	}
	if err := h.SetStyle("monokai"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("SetStyle after load err=%v", err)
	}
}

func TestLoad_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := New("", WithLoadHook(func(context.Context) error {
		<-release
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestLoad_FailureIsRetryable(t *testing.T) {
	var calls atomic.Int32
	h := New("", WithLoadHook(func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("boom")
		}
		return nil
	}))
	if err := h.Load(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !h.Loaded() {
		t.Error("retry did not load")
	}
}

func TestCSS(t *testing.T) {
	h := New("")
	if _, err := h.CSS(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err=%v", err)
	}
	if err := h.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	css, err := h.CSS()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(css, ".hljs-") {
		t.Errorf("css lacks prefixed classes: %.200q", css)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"const x = 1;", "javascript"},
		{"def f(): pass", "python"},
		{"System.out.println(x);", "java"},
		{"#include <stdio.h>", "cpp"},
		{"SELECT * FROM users", "sql"},
		{"sudo make install", "bash"},
		{"fn main() -> u8", "rust"},
		{"just some words", PlainText},
	}
	for _, tc := range tests {
		if got := DetectLanguage(tc.code); got != tc.want {
			t.Errorf("DetectLanguage(%q)=%q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default must return the same instance")
	}
}

func TestSuggestStyles(t *testing.T) {
	if !HasStyle("monokai") {
		t.Fatal("monokai should be registered")
	}
	if HasStyle("monokia") {
		t.Fatal("typo should not be registered")
	}
	got := SuggestStyles("monok", 3)
	if len(got) == 0 || got[0] != "monokai" && !strings.HasPrefix(got[0], "monokai") {
		t.Errorf("SuggestStyles(monok) = %v, want monokai first", got)
	}
	if len(got) > 3 {
		t.Errorf("limit not applied: %v", got)
	}
	if got := SuggestStyles("zzzzzz", 3); len(got) != 0 {
		t.Errorf("SuggestStyles(zzzzzz) = %v, want none", got)
	}
}
