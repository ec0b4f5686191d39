package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application configuration",
	Long: `View and change docseek configuration.

Without a subcommand, shows the current settings. Values live in
~/.docseek/config.toml under dot-notation keys (index.*, sync.*,
metrics.*) alongside per-connector credentials.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value. Values parse as integer or bool when they
look like one, otherwise they are stored as strings.

Examples:
  docseek config set sync.schedule "@every 30m"
  docseek config set sync.enabled false
  docseek config set index.min_token_length 2`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token [connector-type]",
	Short: "Store credentials for a connector type",
	Long: `Stores the access token (and optional username) a connector type uses
for every source of that type. The token is read without echo.

GitHub wants a personal access token; Confluence wants an account email
as username plus an API token.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetToken,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Index]")
	if settings.Index.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Index.Path)
	} else {
		cmd.Printf("  Path: (default)\n")
	}
	if settings.Index.DictPath != "" {
		cmd.Printf("  Dictionary: %s\n", settings.Index.DictPath)
	} else {
		cmd.Printf("  Dictionary: (built-in)\n")
	}
	if settings.Index.UserDictPath != "" {
		cmd.Printf("  User dictionary: %s\n", settings.Index.UserDictPath)
	}
	cmd.Printf("  Min token length: %d\n", settings.Index.MinTokenLength)
	cmd.Printf("  Default language: %s\n", settings.Index.DefaultLanguage)
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Enabled: %t\n", settings.Sync.Enabled)
	cmd.Printf("  Schedule: %s\n", settings.Sync.Schedule)
	cmd.Println()

	cmd.Println("[Metrics]")
	cmd.Printf("  Enabled: %t\n", settings.Metrics.Enabled)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	value, ok := configStore.Get(key)
	if !ok {
		cmd.Printf("%s: (not set)\n", key)
		return nil
	}

	cmd.Printf("%s: %v\n", key, value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]

	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s\n", key)

	// Best-effort check so a typo in a schedule or path shows up now
	// rather than at the next sync.
	if settingsService != nil {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("Warning: %v\n", err)
		}
	}

	return nil
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	connectorType := args[0]

	cmd.Print("Username (leave empty for token-only auth): ")
	reader := bufio.NewReader(cmd.InOrStdin())
	username := readLine(reader)

	cmd.Print("Token: ")
	token := readPassword()
	cmd.Println()
	if token == "" {
		return errors.New("token is required")
	}

	if username != "" {
		if err := configStore.Set(connectorType+".username", username); err != nil {
			return fmt.Errorf("failed to store username: %w", err)
		}
	}
	if err := configStore.Set(connectorType+".token", token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	cmd.Printf("Stored credentials for %s.\n", connectorType)
	return nil
}

// parseConfigValue keeps integers and booleans typed so the settings
// layer reads them back without string coercion. Integers win over
// booleans so "1" and "0" stay numeric.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
