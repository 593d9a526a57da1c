package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/rdp-proxy/data"
	"github.com/olekukonko/tablewriter"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// RenderSymbologyTable prints one row per resolved identifier.
func RenderSymbologyTable(w io.Writer, resp *data.SymbologyResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Input", "Type", "Value", "Name"})

	// Table appearance settings
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for _, match := range resp.Data {
		input := make([]string, 0, len(match.Input))
		for _, id := range match.Input {
			input = append(input, id.Value)
		}
		for _, id := range match.Output {
			table.Append([]string{
				strings.Join(input, ", "),
				identifierType(id),
				id.Value,
				strings.ReplaceAll(id.Name, "\n", " "),
			})
		}
	}
	table.Render()
}

func identifierType(id data.Identifier) string {
	if id.IdentifierType != "" {
		return id.IdentifierType
	}
	return id.ObjectType
}
