package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage document sources",
	Long:  `Add, list, and remove the sources documents are synced from.`,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new source",
	Long: `Adds a new document source. Prompts for the connector type when not
given, then for the source details and connector configuration.

Connectors that need credentials (github, confluence) read them from
the config store; set them first with 'docseek config set-token'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSourcesAdd,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source",
	Long: `Removes a source together with its documents and their index entries.
The documents are gone from search immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesRemove,
}

var sourcesTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List supported connector types",
	RunE:  runSourcesTypes,
}

func init() {
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesTypesCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	types := sourceService.Types()
	if len(types) == 0 {
		return errors.New("no connector types available")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	var connectorType *domain.ConnectorType
	if len(args) > 0 {
		connectorType = findType(types, args[0])
		if connectorType == nil {
			return fmt.Errorf("unknown connector type: %s", args[0])
		}
	} else {
		cmd.Println("Select connector type")
		for i := range types {
			cmd.Printf("  %d. %s - %s\n", i+1, types[i].Name, types[i].Description)
		}
		cmd.Print("\nEnter choice [1]: ")
		idx := parseChoice(readLine(reader), len(types), 1)
		connectorType = &types[idx-1]
	}

	cmd.Printf("Adding %s source\n\n", connectorType.Name)

	cmd.Print("Source ID: ")
	id := readLine(reader)
	if id == "" {
		return errors.New("source ID is required")
	}

	cmd.Printf("Display name [%s]: ", id)
	name := readLine(reader)
	if name == "" {
		name = id
	}

	cmd.Print("Category (optional): ")
	category := readLine(reader)

	config := make(map[string]string)
	for _, key := range connectorType.ConfigKeys {
		prompt := key.Label
		if key.Default != "" {
			prompt += fmt.Sprintf(" [%s]", key.Default)
		} else if !key.Required {
			prompt += " (optional)"
		}
		cmd.Printf("%s: ", prompt)

		value := readLine(reader)
		if value == "" {
			value = key.Default
		}
		if value == "" {
			if key.Required {
				return fmt.Errorf("%s is required", key.Key)
			}
			continue
		}
		config[key.Key] = value
	}

	source := domain.Source{
		ID:       id,
		Type:     connectorType.ID,
		Name:     name,
		Category: category,
		Config:   config,
	}

	if err := sourceService.Add(context.Background(), source); err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("\nAdded source: %s\n", id)
	cmd.Printf("Run 'docseek sync %s' to index its documents.\n", id)

	if connectorType.RequiresAuth {
		cmd.Printf("Note: %s requires credentials. Set them with 'docseek config set-token %s'.\n",
			connectorType.Name, connectorType.ID)
	}

	return nil
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No configured sources. Add one with 'docseek sources add'.")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		src := &sources[i]

		cmd.Printf("  %s (%s)\n", src.ID, src.Type)
		cmd.Printf("    Name: %s\n", src.Name)
		if src.Category != "" {
			cmd.Printf("    Category: %s\n", src.Category)
		}
		if location := sourceLocation(src); location != "" {
			cmd.Printf("    Location: %s\n", location)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d sources\n", len(sources))
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sourceID := args[0]

	if err := sourceService.Remove(context.Background(), sourceID); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Removed source: %s\n", sourceID)
	return nil
}

func runSourcesTypes(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	types := sourceService.Types()
	if len(types) == 0 {
		cmd.Println("No connector types available.")
		return nil
	}

	cmd.Println("Available connector types:")
	cmd.Println()
	for i := range types {
		t := &types[i]

		cmd.Printf("  %s - %s\n", t.ID, t.Name)
		cmd.Printf("    %s\n", t.Description)
		if t.RequiresAuth {
			cmd.Printf("    Requires credentials (docseek config set-token %s)\n", t.ID)
		}
		if len(t.ConfigKeys) > 0 {
			cmd.Println("    Config:")
			for _, key := range t.ConfigKeys {
				line := fmt.Sprintf("      %s - %s", key.Key, key.Description)
				if key.Required {
					line += " (required)"
				}
				cmd.Println(line)
			}
		}
		cmd.Println()
	}

	return nil
}

// sourceLocation picks the config value worth showing in a listing.
func sourceLocation(src *domain.Source) string {
	if path := src.ConfigValue("path"); path != "" {
		return path
	}
	return src.ConfigValue("url")
}

func findType(types []domain.ConnectorType, id string) *domain.ConnectorType {
	for i := range types {
		if types[i].ID == id {
			return &types[i]
		}
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
