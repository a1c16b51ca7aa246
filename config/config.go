// Package config loads and saves the simulator's TOML-backed preferences:
// execution defaults, debugger display settings, and trace/API options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk shape of the simulator's settings. Grounded on
// config/config.go's struct layout, trimmed of ARM-specific fields (stack size
// in bytes for a segmented memory model, statistics/hotpath collection) that
// have no home over a flat 2^16-word machine with no segments.
type Config struct {
	Execution struct {
		MaxCycles    uint64 `toml:"max_cycles"` // 0 = unbounded, matching spec.md's "run has no intrinsic timeout"
		DefaultOrigin string `toml:"default_origin"`
		EnableTrace  bool   `toml:"enable_trace"`
	} `toml:"execution"`

	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowSource    bool `toml:"show_source"`
		ShowRegisters bool `toml:"show_registers"`
	} `toml:"debugger"`

	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		WordsPerLine  int    `toml:"words_per_line"`
		SourceContext int    `toml:"source_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	Trace struct {
		OutputFile   string `toml:"output_file"`
		FilterRegs   string `toml:"filter_registers"` // comma-separated: "R0,R1,PC"
		MaxEntries   int    `toml:"max_entries"`
	} `toml:"trace"`

	API struct {
		ListenAddr string `toml:"listen_addr"`
		EnableCORS bool   `toml:"enable_cors"`
	} `toml:"api"`
}

// DefaultConfig returns a Config populated with the simulator's defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 0
	cfg.Execution.DefaultOrigin = "x3000"
	cfg.Execution.EnableTrace = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowSource = true
	cfg.Debugger.ShowRegisters = true

	cfg.Display.ColorOutput = true
	cfg.Display.WordsPerLine = 8
	cfg.Display.SourceContext = 5
	cfg.Display.NumberFormat = "hex"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.FilterRegs = ""
	cfg.Trace.MaxEntries = 100000

	cfg.API.ListenAddr = "127.0.0.1:8374"
	cfg.API.EnableCORS = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path, creating its
// containing directory if necessary.
func GetConfigPath() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "lc3sim")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		dir = filepath.Join(home, ".config", "lc3sim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// GetLogPath returns the platform-specific trace/log directory path.
func GetLogPath() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "lc3sim", "logs")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		dir = filepath.Join(home, ".local", "share", "lc3sim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "logs"
	}
	return dir
}

// Load reads the config file at the default path, or returns defaults if it
// doesn't exist yet.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes c to the default config path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
