package mcp

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// renderJSON encodes v as indented JSON without HTML escaping, so titles
// and descriptions keep their original characters.
func renderJSON(v any) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// formatSummaryPrompt renders the summarize-notes prompt text. Any style
// other than "detailed" is brief.
func formatSummaryPrompt(style string, list []models.Note) string {
	var b strings.Builder
	b.WriteString("Here are the current notes to summarize:")
	if style == "detailed" {
		b.WriteString(" Give extensive details.")
	}
	b.WriteString("\n\n")
	for i, n := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + n.Name + ": " + n.Content)
	}
	return b.String()
}
