package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/eshop-analytics/internal/geo"
	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the browser full screen and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, source Source, cities *geo.Table) error {
	p := tea.NewProgram(
		NewModel(ctx, source, cities),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
