// Package config provides configuration management for remex.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the client configuration, loaded from an INI file with
// environment overrides for the two connection settings.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\remex\config
//   - Unix: ~/.config/remex/config
//
// INI format:
//
//	[agent]
//	url = http://127.0.0.1:8472
//	api_key = <token>
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	username =
//	password =
//	bypass =
//
//	[explorer]
//	sort_field = name
//	sort_ascending = true
//	page_size = 50
type Config struct {
	// Agent connection settings
	AgentURL string `ini:"url"`
	APIKey   string `ini:"api_key"`

	// Proxy settings
	Proxy ProxyConfig

	// Explorer view defaults
	Explorer ExplorerConfig
}

// ProxyConfig describes how to reach the agent through an outbound proxy.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	// "system" honors HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
	Mode string `ini:"mode"`

	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	Username string `ini:"username"`
	Password string `ini:"password"`

	// Bypass is a comma-separated host list that connects directly.
	Bypass string `ini:"bypass"`
}

// ExplorerConfig carries the list-view defaults commands start from.
type ExplorerConfig struct {
	// SortField is one of "name", "size", "modified".
	SortField string `ini:"sort_field"`

	SortAscending bool `ini:"sort_ascending"`

	// PageSize is rows per page; 0 disables pagination.
	PageSize int `ini:"page_size"`
}

// Validation errors
var (
	ErrMissingAgentURL  = errors.New("agent url is required")
	ErrInvalidProxyMode = errors.New("proxy mode must be no-proxy, system, basic or ntlm")
	ErrMissingProxyHost = errors.New("proxy host is required for basic and ntlm modes")
	ErrInvalidProxyPort = errors.New("proxy port must be between 1 and 65535")
	ErrInvalidSortField = errors.New("sort_field must be name, size or modified")
	ErrInvalidPageSize  = errors.New("page_size must be zero or positive")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		AgentURL: "http://127.0.0.1:8472",
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
		Explorer: ExplorerConfig{
			SortField:     "name",
			SortAscending: true,
			PageSize:      50,
		},
	}
}

// Load reads configuration from an INI file. A missing file yields defaults
// and no error; a malformed file is an error. REMEX_AGENT_URL and
// REMEX_API_KEY override the file in any case.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	agentSection := iniFile.Section("agent")
	cfg.AgentURL = agentSection.Key("url").MustString(cfg.AgentURL)
	cfg.APIKey = agentSection.Key("api_key").String()

	proxySection := iniFile.Section("proxy")
	cfg.Proxy.Mode = proxySection.Key("mode").MustString("no-proxy")
	cfg.Proxy.Host = proxySection.Key("host").String()
	cfg.Proxy.Port = proxySection.Key("port").MustInt(0)
	cfg.Proxy.Username = proxySection.Key("username").String()
	cfg.Proxy.Password = proxySection.Key("password").String()
	cfg.Proxy.Bypass = proxySection.Key("bypass").String()

	explorerSection := iniFile.Section("explorer")
	cfg.Explorer.SortField = explorerSection.Key("sort_field").MustString("name")
	cfg.Explorer.SortAscending = explorerSection.Key("sort_ascending").MustBool(true)
	cfg.Explorer.PageSize = explorerSection.Key("page_size").MustInt(50)

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("REMEX_AGENT_URL"); url != "" {
		cfg.AgentURL = url
	}
	if key := os.Getenv("REMEX_API_KEY"); key != "" {
		cfg.APIKey = key
	}
}

// Save writes configuration to an INI file. Creates parent directories if
// they don't exist. The API key is stored in the file, so the file is
// written 0600 via a temp file and atomic rename.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	agentSection, err := iniFile.NewSection("agent")
	if err != nil {
		return fmt.Errorf("failed to create agent section: %w", err)
	}
	agentSection.Key("url").SetValue(cfg.AgentURL)
	agentSection.Key("api_key").SetValue(cfg.APIKey)

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.Proxy.Mode)
	proxySection.Key("host").SetValue(cfg.Proxy.Host)
	proxySection.Key("port").SetValue(fmt.Sprintf("%d", cfg.Proxy.Port))
	proxySection.Key("username").SetValue(cfg.Proxy.Username)
	proxySection.Key("password").SetValue(cfg.Proxy.Password)
	proxySection.Key("bypass").SetValue(cfg.Proxy.Bypass)

	explorerSection, err := iniFile.NewSection("explorer")
	if err != nil {
		return fmt.Errorf("failed to create explorer section: %w", err)
	}
	explorerSection.Key("sort_field").SetValue(cfg.Explorer.SortField)
	explorerSection.Key("sort_ascending").SetValue(fmt.Sprintf("%t", cfg.Explorer.SortAscending))
	explorerSection.Key("page_size").SetValue(fmt.Sprintf("%d", cfg.Explorer.PageSize))

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks that the configuration can drive the agent client.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.AgentURL) == "" {
		return ErrMissingAgentURL
	}

	switch cfg.Proxy.Mode {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.Proxy.Host) == "" {
			return ErrMissingProxyHost
		}
		if cfg.Proxy.Port < 1 || cfg.Proxy.Port > 65535 {
			return ErrInvalidProxyPort
		}
	default:
		return ErrInvalidProxyMode
	}

	switch cfg.Explorer.SortField {
	case "name", "size", "modified":
	default:
		return ErrInvalidSortField
	}
	if cfg.Explorer.PageSize < 0 {
		return ErrInvalidPageSize
	}

	return nil
}
