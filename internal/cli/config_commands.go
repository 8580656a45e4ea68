package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/remex-io/remex/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage remex configuration",
		Long: `Configuration management commands for remex.

Commands:
  show  - Display current configuration
  set   - Set one configuration value
  test  - Test the agent connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/remex/config)
  2. Environment variables (REMEX_AGENT_URL, REMEX_API_KEY)
  3. Command-line flags (--agent-url, --api-key)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No Validate here: show must work on a broken config too.
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if agentURL != "" {
				cfg.AgentURL = agentURL
			}
			if apiKey != "" {
				cfg.APIKey = apiKey
			}

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("Agent Settings:")
			fmt.Printf("  Agent URL: %s\n", cfg.AgentURL)
			if cfg.APIKey != "" {
				fmt.Printf("  API Key:   <set (%d chars)>\n", len(cfg.APIKey))
			} else {
				fmt.Println("  API Key:   <not set>")
			}
			fmt.Println()

			fmt.Println("Proxy Settings:")
			fmt.Printf("  Mode: %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("  Host: %s\n", cfg.Proxy.Host)
				fmt.Printf("  Port: %d\n", cfg.Proxy.Port)
			}
			if cfg.Proxy.Username != "" {
				fmt.Printf("  Username: %s\n", cfg.Proxy.Username)
				fmt.Println("  Password: <set>")
			}
			if cfg.Proxy.Bypass != "" {
				fmt.Printf("  Bypass: %s\n", cfg.Proxy.Bypass)
			}
			fmt.Println()

			fmt.Println("Explorer Settings:")
			fmt.Printf("  Sort Field:     %s\n", cfg.Explorer.SortField)
			fmt.Printf("  Sort Ascending: %t\n", cfg.Explorer.SortAscending)
			fmt.Printf("  Page Size:      %d\n", cfg.Explorer.PageSize)
			fmt.Println()

			configPath := cfgFile
			if configPath == "" {
				configPath, _ = config.DefaultConfigPath()
			}
			fmt.Printf("Configuration file: %s\n", configPath)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("  (file does not exist - using defaults)")
			}

			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Long: `Set one configuration value and save the file.

Keys:
  agent.url                Agent base URL
  agent.api_key            Agent API token
  proxy.mode               no-proxy, system, basic or ntlm
  proxy.host               Proxy host
  proxy.port               Proxy port
  proxy.username           Proxy username
  proxy.password           Proxy password
  proxy.bypass             Comma-separated hosts that connect directly
  explorer.sort_field      name, size or modified
  explorer.sort_ascending  true or false
  explorer.page_size       Rows per page (0 disables pagination)

Examples:
  remex config set agent.url http://10.0.0.5:8472
  remex config set explorer.sort_field modified`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag overrides stay out of the file: set edits what Load
			// read from disk, nothing more.
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := applyConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, cfgFile); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("✓ Set %s\n", args[0])
			return nil
		},
	}
}

// applyConfigValue sets one dotted key on the config.
func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "agent.url":
		cfg.AgentURL = value
	case "agent.api_key":
		cfg.APIKey = value
	case "proxy.mode":
		cfg.Proxy.Mode = value
	case "proxy.host":
		cfg.Proxy.Host = value
	case "proxy.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("proxy.port must be a number, got %q", value)
		}
		cfg.Proxy.Port = port
	case "proxy.username":
		cfg.Proxy.Username = value
	case "proxy.password":
		cfg.Proxy.Password = value
	case "proxy.bypass":
		cfg.Proxy.Bypass = value
	case "explorer.sort_field":
		cfg.Explorer.SortField = value
	case "explorer.sort_ascending":
		ascending, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("explorer.sort_ascending must be true or false, got %q", value)
		}
		cfg.Explorer.SortAscending = ascending
	case "explorer.page_size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("explorer.page_size must be a number, got %q", value)
		}
		cfg.Explorer.PageSize = size
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the agent connection",
		Long: `Test the agent connection with current configuration.

Use this to verify the agent URL, the API token and network
connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()

			fmt.Println("Testing Agent Connection")
			fmt.Println("========================")
			fmt.Println()

			client, cfg, err := newClient()
			if err != nil {
				return err
			}

			fmt.Printf("Agent URL: %s\n", cfg.AgentURL)
			fmt.Println("Testing connection...")
			fmt.Println()

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			drives, err := client.Drives(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			log.Info().Msg("Connection test successful")

			fmt.Println("✓ Connection SUCCESSFUL")
			fmt.Printf("  Agent reports %d drive(s)\n", len(drives))
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("failed to determine config path: %w", err)
				}
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", configPath)
			fmt.Println()

			if info, err := os.Stat(configPath); err == nil {
				fmt.Println("Status: ✓ File exists")
				fmt.Printf("Size:   %d bytes\n", info.Size())
				fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: File does not exist")
				fmt.Println()
				fmt.Println("Create it with: remex config set agent.url <url>")
			}

			return nil
		},
	}
}
