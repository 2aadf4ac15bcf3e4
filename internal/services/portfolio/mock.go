package portfolio

import (
	"github.com/bobmcallan/dhandash/internal/models"
)

const mockCash = 10000.0

// MockSnapshot returns the fixed demo portfolio served when live data is
// unavailable. reason is surfaced in the snapshot message.
func MockSnapshot(reason string) *models.PortfolioSnapshot {
	positions := []models.Position{
		models.NewPosition("AAPL", 20, 187.5, 189.1),
		models.NewPosition("MSFT", 10, 414.2, 418.7),
		models.NewPosition("NVDA", 4, 110.0, 114.3),
	}

	message := "Using mock data"
	if reason != "" {
		message += " - " + reason
	}
	return models.NewPortfolioSnapshot(mockCash, positions, models.SourceMock, message)
}
