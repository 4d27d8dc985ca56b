package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Animation.Mode != "typewriter" || cfg.Animation.Speed != 25 || !cfg.Animation.EnableTextAnimation {
		t.Fatalf("animation defaults = %+v", cfg.Animation)
	}
	if cfg.Animation.ChunkSize != nil || cfg.Animation.FadeDuration != nil {
		t.Fatal("unset overrides must stay nil")
	}
	if cfg.Markdown.Engine != "regex" || !cfg.Markdown.Sanitize {
		t.Fatalf("markdown defaults = %+v", cfg.Markdown)
	}
	if cfg.Highlight.Style != "github-dark" || cfg.Log.Level != "warn" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFile_Values(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
animation:
  mode: fade
  speed: 64
  fade_duration: 300
  chunk_size: 5
markdown:
  engine: goldmark
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Animation.Mode != "fade" || cfg.Animation.Speed != 64 {
		t.Fatalf("animation = %+v", cfg.Animation)
	}
	if cfg.Animation.FadeDuration == nil || *cfg.Animation.FadeDuration != 300 {
		t.Fatalf("fade_duration = %v", cfg.Animation.FadeDuration)
	}
	if cfg.Animation.ChunkSize == nil || *cfg.Animation.ChunkSize != 5 {
		t.Fatalf("chunk_size = %v", cfg.Animation.ChunkSize)
	}
	if cfg.Markdown.Engine != "goldmark" || cfg.Log.Format != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("BUDDY_ANIMATION_SPEED", "300")
	cfg, err := LoadFile(writeConfig(t, "animation:\n  speed: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Animation.Speed != 300 {
		t.Fatalf("speed = %v, want env override", cfg.Animation.Speed)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"mode":   "animation:\n  mode: bounce\n",
		"engine": "markdown:\n  engine: pandoc\n",
		"level":  "log:\n  level: loud\n",
		"format": "log:\n  format: xml\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Animation.Mode != "typewriter" {
		t.Fatalf("mode = %q", cfg.Animation.Mode)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "animation:\n  chunk_size: 7\n"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "chunk_size: 7") || strings.Contains(out, "fade_duration") {
		t.Fatalf("yaml = %s", out)
	}
	var back Config
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Animation.Mode != "typewriter" {
		t.Fatalf("decoded = %+v", back)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "buddy-render") {
		t.Fatalf("dir = %q", dir)
	}
}

func TestSaveFile_ThenLoad(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Animation.Mode = "fade"
	cfg.Highlight.Style = "monokai"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveFile(cfg, path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Animation.Mode != "fade" || got.Highlight.Style != "monokai" {
		t.Errorf("reloaded config = %+v", got)
	}
}
