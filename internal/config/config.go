// Package config handles exporter configuration loading and management.
package config

import "time"

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	GLTF    GLTFConfig    `yaml:"gltf"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds model document settings.
type ExportConfig struct {
	SelectedOnly         bool   `yaml:"selected_only"`          // Export only selected objects
	FixHierarchySpelling bool   `yaml:"fix_hierarchy_spelling"` // Write "bone_hierarchy" instead of "bone_hierachy"
	Indent               string `yaml:"indent"`                 // JSON indentation, "" for compact output
}

// GLTFConfig holds glTF import settings.
type GLTFConfig struct {
	FPS float64 `yaml:"fps"` // Frames per second used to turn keyframe times into frames
}

// ServerConfig holds HTTP export service settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyMB    int64         `yaml:"max_body_mb"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			SelectedOnly:         false,
			FixHierarchySpelling: false,
			Indent:               "\t",
		},
		GLTF: GLTFConfig{
			FPS: 24,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8420",
			MaxBodyMB:    64,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
