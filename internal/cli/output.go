// Package cli renders catalogue contents for flagctl in table, JSON, or
// YAML form.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/nyxflag/flagsdk/internal/catalogue"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFeatures outputs the catalogue's features in the specified format.
func PrintFeatures(features []catalogue.Feature, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]catalogue.Feature{"features": features})
	case FormatYAML:
		return printYAML(features)
	case FormatTable:
		printTable(features)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintValue outputs an arbitrary value as JSON or YAML; table format
// falls back to JSON since a single decision has no rows to speak of.
func PrintValue(value any, format OutputFormat) error {
	switch format {
	case FormatYAML:
		return printYAML(value)
	case FormatJSON, FormatTable:
		return printJSON(value)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printTable(features []catalogue.Feature) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Enabled", "Strategies", "Variants", "Description"})

	for _, f := range features {
		description := f.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}
		table.Append([]string{
			f.Name,
			strconv.FormatBool(f.Enabled),
			strconv.Itoa(len(f.Strategies)),
			strconv.Itoa(len(f.Variants)),
			description,
		})
	}
	table.Render()
}
