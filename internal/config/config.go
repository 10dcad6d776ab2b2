package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ShellConfig struct {
	// TimeoutMS 是未显式指定超时时的默认值；MaxTimeoutMS 是硬上限，请求超过即拒绝。
	// TimeoutMS is the default when the request carries no timeout;
	// MaxTimeoutMS is the hard ceiling, requests above it are rejected.
	TimeoutMS        int `json:"timeout_ms"`
	MaxTimeoutMS     int `json:"max_timeout_ms"`
	OutputLimitChars int `json:"output_limit_chars"`
}

type ReadConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLineChars int `json:"max_line_chars"`
}

type SearchConfig struct {
	MaxMatches int `json:"max_matches"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type Config struct {
	Shell   ShellConfig   `json:"shell"`
	Read    ReadConfig    `json:"read"`
	Search  SearchConfig  `json:"search"`
	Storage StorageConfig `json:"storage"`
}

func Default() Config {
	return Config{
		Shell: ShellConfig{
			TimeoutMS:        DefaultShellTimeoutMS,
			MaxTimeoutMS:     MaxShellTimeoutMS,
			OutputLimitChars: DefaultOutputLimitChars,
		},
		Read: ReadConfig{
			DefaultLimit: DefaultReadLimit,
			MaxLineChars: DefaultReadMaxLineChars,
		},
		Search: SearchConfig{
			MaxMatches: DefaultSearchMaxMatches,
		},
		Storage: StorageConfig{
			BaseDir: defaultBaseDir(),
		},
	}
}

type fileShellConfig struct {
	TimeoutMS        *int `json:"timeout_ms"`
	MaxTimeoutMS     *int `json:"max_timeout_ms"`
	OutputLimitChars *int `json:"output_limit_chars"`
}

type fileReadConfig struct {
	DefaultLimit *int `json:"default_limit"`
	MaxLineChars *int `json:"max_line_chars"`
}

type fileSearchConfig struct {
	MaxMatches *int `json:"max_matches"`
}

type fileStorageConfig struct {
	BaseDir *string `json:"base_dir"`
}

type fileConfig struct {
	Shell   *fileShellConfig   `json:"shell"`
	Read    *fileReadConfig    `json:"read"`
	Search  *fileSearchConfig  `json:"search"`
	Storage *fileStorageConfig `json:"storage"`
}

// Load reads the config file at path (JSON, // and /* */ comments allowed)
// on top of defaults. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := mergeFromFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}

	cleaned := stripJSONComments(data)
	var fc fileConfig
	if err := json.Unmarshal(cleaned, &fc); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}

	if fc.Shell != nil {
		if fc.Shell.TimeoutMS != nil {
			cfg.Shell.TimeoutMS = *fc.Shell.TimeoutMS
		}
		if fc.Shell.MaxTimeoutMS != nil {
			cfg.Shell.MaxTimeoutMS = *fc.Shell.MaxTimeoutMS
		}
		if fc.Shell.OutputLimitChars != nil {
			cfg.Shell.OutputLimitChars = *fc.Shell.OutputLimitChars
		}
	}
	if fc.Read != nil {
		if fc.Read.DefaultLimit != nil {
			cfg.Read.DefaultLimit = *fc.Read.DefaultLimit
		}
		if fc.Read.MaxLineChars != nil {
			cfg.Read.MaxLineChars = *fc.Read.MaxLineChars
		}
	}
	if fc.Search != nil && fc.Search.MaxMatches != nil {
		cfg.Search.MaxMatches = *fc.Search.MaxMatches
	}
	if fc.Storage != nil && fc.Storage.BaseDir != nil {
		cfg.Storage.BaseDir = strings.TrimSpace(*fc.Storage.BaseDir)
	}
	return nil
}

func normalize(cfg *Config) error {
	if cfg.Shell.TimeoutMS <= 0 {
		cfg.Shell.TimeoutMS = DefaultShellTimeoutMS
	}
	if cfg.Shell.MaxTimeoutMS <= 0 {
		cfg.Shell.MaxTimeoutMS = MaxShellTimeoutMS
	}
	if cfg.Shell.TimeoutMS > cfg.Shell.MaxTimeoutMS {
		return fmt.Errorf("shell timeout_ms (%d) exceeds max_timeout_ms (%d)", cfg.Shell.TimeoutMS, cfg.Shell.MaxTimeoutMS)
	}
	if cfg.Shell.OutputLimitChars <= 0 {
		cfg.Shell.OutputLimitChars = DefaultOutputLimitChars
	}
	if cfg.Read.DefaultLimit <= 0 {
		cfg.Read.DefaultLimit = DefaultReadLimit
	}
	if cfg.Read.MaxLineChars <= 0 {
		cfg.Read.MaxLineChars = DefaultReadMaxLineChars
	}
	if cfg.Search.MaxMatches <= 0 {
		cfg.Search.MaxMatches = DefaultSearchMaxMatches
	}
	if cfg.Storage.BaseDir == "" {
		cfg.Storage.BaseDir = defaultBaseDir()
	}
	return nil
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolbelt"
	}
	return filepath.Join(home, ".toolbelt")
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
