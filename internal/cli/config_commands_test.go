package cli

import (
	"strings"
	"testing"

	"github.com/remex-io/remex/internal/config"
)

func TestConfigCmdSubcommands(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Use = %q, want %q", cmd.Use, "config")
	}

	want := []string{"show", "set", "test", "path"}
	found := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		found[sub.Name()] = true
	}
	for _, name := range want {
		if !found[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestApplyConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(cfg *config.Config) bool
	}{
		{
			key:   "agent.url",
			value: "http://10.0.0.5:8472",
			check: func(cfg *config.Config) bool { return cfg.AgentURL == "http://10.0.0.5:8472" },
		},
		{
			key:   "agent.api_key",
			value: "secret",
			check: func(cfg *config.Config) bool { return cfg.APIKey == "secret" },
		},
		{
			key:   "proxy.mode",
			value: "ntlm",
			check: func(cfg *config.Config) bool { return cfg.Proxy.Mode == "ntlm" },
		},
		{
			key:   "proxy.port",
			value: "8080",
			check: func(cfg *config.Config) bool { return cfg.Proxy.Port == 8080 },
		},
		{
			key:     "proxy.port",
			value:   "eighty",
			wantErr: true,
		},
		{
			key:   "proxy.bypass",
			value: "localhost,10.0.0.0/8",
			check: func(cfg *config.Config) bool { return cfg.Proxy.Bypass == "localhost,10.0.0.0/8" },
		},
		{
			key:   "explorer.sort_field",
			value: "modified",
			check: func(cfg *config.Config) bool { return cfg.Explorer.SortField == "modified" },
		},
		{
			key:   "explorer.sort_ascending",
			value: "false",
			check: func(cfg *config.Config) bool { return !cfg.Explorer.SortAscending },
		},
		{
			key:     "explorer.sort_ascending",
			value:   "yes please",
			wantErr: true,
		},
		{
			key:   "explorer.page_size",
			value: "250",
			check: func(cfg *config.Config) bool { return cfg.Explorer.PageSize == 250 },
		},
		{
			key:     "explorer.page_size",
			value:   "many",
			wantErr: true,
		},
		{
			key:     "agent.timeout",
			value:   "30",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.New()
			err := applyConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyConfigValue(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("applyConfigValue(%q, %q) did not apply the value", tt.key, tt.value)
			}
		})
	}
}

func TestApplyConfigValueUnknownKeyNamesIt(t *testing.T) {
	err := applyConfigValue(config.New(), "explorer.theme", "dark")
	if err == nil {
		t.Fatal("applyConfigValue() error = nil, want unknown key error")
	}
	if !strings.Contains(err.Error(), "explorer.theme") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}
