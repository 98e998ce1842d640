package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

// DefaultWidth is used until the terminal reports its size.
const DefaultWidth = 80

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// RenderFooter renders key hints on one line.
func RenderFooter(hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key)+" "+theme.Label.Render(h.Description))
	}
	return strings.Join(parts, "   ")
}
