package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/config"
	"github.com/spf13/cobra"
)

// NewSignaturesCmd creates the signatures command.
func NewSignaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "List the tools trackerscan detects",
		Long: `List every tool signature in the catalog: the built-in tools followed by the
signatures declared in the configuration file.

Examples:
  # Show the catalog as a table
  trackerscan signatures

  # Dump the catalog as JSON
  trackerscan signatures --json`,
		Args: cobra.NoArgs,
		RunE: runSignaturesCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the catalog as JSON")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .trackerscan in current or home directory)")

	return cmd
}

// runSignaturesCmd executes the signatures command.
func runSignaturesCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cat, err := loadCatalog(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cat.Lookup())
	}

	_, err = fmt.Fprintln(out, signatureTable(cat))
	return err
}

// loadCatalog returns the builtin catalog extended with the signatures of
// the configuration file, if one is found.
func loadCatalog(configPath string) (*catalog.Catalog, error) {
	path := config.FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return catalog.Builtin(), nil
	}
	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cat, err := file.Catalog(catalog.Builtin())
	if err != nil {
		return nil, fmt.Errorf("invalid signatures in %s: %w", path, err)
	}
	return cat, nil
}

// signatureTable renders the catalog with one row per tool.
func signatureTable(cat *catalog.Catalog) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TOOL", "CATEGORY", "URL", "DOM", "SCRIPT", "GLOBALS")
	for _, sig := range cat.Lookup() {
		t.Row(
			sig.Name,
			sig.Category,
			strconv.Itoa(len(sig.URLPatterns)),
			strconv.Itoa(len(sig.DOMPatterns)),
			strconv.Itoa(len(sig.ScriptPatterns)),
			strings.Join(sig.GlobalVars, ", "),
		)
	}
	return t.String()
}
