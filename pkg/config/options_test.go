package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "url: https://config.example.com\nlevels:\n- myproject\n- staging\ncache: 60\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if opts.URL != "https://config.example.com" {
		t.Errorf("URL = %q", opts.URL)
	}
	if len(opts.Levels) != 2 || opts.Levels[0] != "myproject" {
		t.Errorf("Levels = %v", opts.Levels)
	}
	if opts.CacheSeconds != 60 {
		t.Errorf("CacheSeconds = %d", opts.CacheSeconds)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	opts, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if opts.URL != "" || len(opts.Levels) != 0 || opts.CacheSeconds != 0 || opts.Key != "" {
		t.Errorf("opts = %+v, want zero options", opts)
	}
}

func TestOptionsMerge(t *testing.T) {
	flags := Options{URL: "https://flags.example.com"}
	file := Options{
		URL:          "https://file.example.com",
		Levels:       []string{"myproject"},
		CacheSeconds: 120,
		Key:          "custom-stack",
	}

	merged := flags.Merge(file)
	if merged.URL != "https://flags.example.com" {
		t.Errorf("flags should win for URL, got %q", merged.URL)
	}
	if len(merged.Levels) != 1 || merged.CacheSeconds != 120 || merged.Key != "custom-stack" {
		t.Errorf("file values should fill the gaps, got %+v", merged)
	}

	defaulted := merged.Merge(Options{CacheSeconds: DefaultCacheSeconds, Key: DefaultKey})
	if defaulted.CacheSeconds != 120 || defaulted.Key != "custom-stack" {
		t.Errorf("defaults should not override set values, got %+v", defaulted)
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := Options{URL: "https://config.example.com", CacheSeconds: 300, Key: DefaultKey}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"missing url", Options{Key: DefaultKey}},
		{"malformed url", Options{URL: "not a url", Key: DefaultKey}},
		{"missing key", Options{URL: "https://config.example.com"}},
		{"negative cache", Options{URL: "https://config.example.com", Key: DefaultKey, CacheSeconds: -1}},
		{"empty level", Options{URL: "https://config.example.com", Key: DefaultKey, Levels: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
