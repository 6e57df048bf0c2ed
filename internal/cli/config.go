package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	Token     string `yaml:"token,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tracker", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// getServerURL returns the server URL from flag, env var, config, or default.
func getServerURL() string {
	if flagServer != "" {
		return flagServer
	}
	if v := os.Getenv("TRACKER_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getToken returns the bearer token from env var or config.
func getToken() string {
	if v := os.Getenv("TRACKER_TOKEN"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.Token
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	var server, token string
	var clearToken bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update the CLI config",
		Long:  "Without flags, prints the effective server URL. With --set-server or --set-token, updates ~/.config/tracker/config.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			changed := false
			if server != "" {
				cfg.ServerURL = server
				changed = true
			}
			if token != "" {
				cfg.Token = token
				changed = true
			}
			if clearToken {
				cfg.Token = ""
				changed = true
			}
			if changed {
				if err := saveConfig(cfg); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]any{
					"server_url": getServerURL(),
					"has_token":  getToken() != "",
				})
			}
			fmt.Fprintf(out, "Server: %s\n", getServerURL())
			if getToken() != "" {
				fmt.Fprintln(out, "Token:  set")
			} else {
				fmt.Fprintln(out, "Token:  not set")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "set-server", "", "persist the API server URL")
	cmd.Flags().StringVar(&token, "set-token", "", "persist a bearer token")
	cmd.Flags().BoolVar(&clearToken, "clear-token", false, "remove the stored token")
	return cmd
}
