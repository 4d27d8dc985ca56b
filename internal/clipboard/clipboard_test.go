package clipboard

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func stubLookPath(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestWriteCommand(t *testing.T) {
	cases := []struct {
		name      string
		goos      string
		available []string
		want      string
		err       bool
	}{
		{name: "mac uses pbcopy", goos: "darwin", want: "pbcopy"},
		{name: "wayland preferred", goos: "linux", available: []string{"xclip", "wl-copy"}, want: "wl-copy"},
		{name: "x11 fallback", goos: "linux", available: []string{"xclip"}, want: "xclip -selection clipboard"},
		{name: "nothing installed", goos: "linux", err: true},
		{name: "unknown os", goos: "plan9", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubLookPath(t, tc.available...)
			got, err := writeCommand(tc.goos)
			if tc.err {
				if !errors.Is(err, ErrUnsupported) {
					t.Fatalf("writeCommand() err = %v, want ErrUnsupported", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, " ") != tc.want {
				t.Fatalf("writeCommand() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReadCommand(t *testing.T) {
	stubLookPath(t, "xclip")
	got, err := readCommand("linux")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, " ") != "xclip -selection clipboard -o" {
		t.Fatalf("readCommand() = %q", got)
	}
}
