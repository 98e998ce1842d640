package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/talesin/civics100-sub000/internal/ui/theme"
)

// ProgressBar renders done out of total as a horizontal bar followed by
// the counts.
type ProgressBar struct {
	Done  int
	Total int
	Width int
}

// Fraction returns the completed share in [0,1].
func (p ProgressBar) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(1, max(0, float64(p.Done)/float64(p.Total)))
}

// View renders the bar.
func (p ProgressBar) View() string {
	counts := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	barWidth := max(4, p.Width-len(counts))
	filled := int(float64(barWidth) * p.Fraction())

	return lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)) +
		theme.Label.Render(counts)
}
