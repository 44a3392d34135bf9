package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test export defaults
	if cfg.Export.SelectedOnly {
		t.Error("expected selected_only to be false by default")
	}
	if cfg.Export.FixHierarchySpelling {
		t.Error("expected legacy hierarchy spelling by default")
	}
	if cfg.Export.Indent != "\t" {
		t.Errorf("expected tab indent, got %q", cfg.Export.Indent)
	}

	// Test glTF defaults
	if cfg.GLTF.FPS != 24 {
		t.Errorf("expected fps 24, got %v", cfg.GLTF.FPS)
	}

	// Test server defaults
	if cfg.Server.Addr != "127.0.0.1:8420" {
		t.Errorf("expected addr 127.0.0.1:8420, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout 30s, got %v", cfg.Server.ReadTimeout)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
export:
  selected_only: true
  fix_hierarchy_spelling: true
  indent: "  "

gltf:
  fps: 30

server:
  addr: ":9000"
  max_body_mb: 8
  read_timeout: 5s

logging:
  level: "debug"
  log_file: "zmdl.log"
  json: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Export.SelectedOnly {
		t.Error("expected selected_only to be true")
	}
	if !cfg.Export.FixHierarchySpelling {
		t.Error("expected fix_hierarchy_spelling to be true")
	}
	if cfg.Export.Indent != "  " {
		t.Errorf("expected two-space indent, got %q", cfg.Export.Indent)
	}
	if cfg.GLTF.FPS != 30 {
		t.Errorf("expected fps 30, got %v", cfg.GLTF.FPS)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Server.MaxBodyMB != 8 {
		t.Errorf("expected max body 8, got %d", cfg.Server.MaxBodyMB)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	// Not in the file, keeps its default
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("expected write timeout 60s, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "zmdl.log" || !cfg.Logging.JSON {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
gltf:
  fps: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/zmdl.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.GLTF.FPS = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero fps")
	}

	cfg = Default()
	cfg.Server.MaxBodyMB = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative body limit")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("gltf:\n  fps: 25\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fps flag",
			setup: func() { *flagFPS = 60 },
			verify: func(cfg *Config) {
				if cfg.GLTF.FPS != 60 {
					t.Errorf("expected fps 60, got %v", cfg.GLTF.FPS)
				}
			},
			teardown: func() { *flagFPS = 0 },
		},
		{
			name:  "addr flag",
			setup: func() { *flagAddr = ":7000" },
			verify: func(cfg *Config) {
				if cfg.Server.Addr != ":7000" {
					t.Errorf("expected addr :7000, got %s", cfg.Server.Addr)
				}
			},
			teardown: func() { *flagAddr = "" },
		},
		{
			name:  "log file flag",
			setup: func() { *flagLogFile = "out.log" },
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file out.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
gltf:
  fps: 30
server:
  addr: ":9100"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Flag overrides the file
	*flagConfig = configPath
	*flagFPS = 50
	defer func() {
		*flagConfig = ""
		*flagFPS = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.GLTF.FPS != 50 {
		t.Errorf("expected fps 50 from flag, got %v", cfg.GLTF.FPS)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("expected addr :9100 from file, got %s", cfg.Server.Addr)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.GLTF.FPS = 48
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.GLTF.FPS != 48 {
		t.Errorf("expected fps 48 after reload, got %v", loaded.GLTF.FPS)
	}
}
