package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/repo"

	"go.opentelemetry.io/otel"
)

// StatsService reports what the logbook holds.
type StatsService struct {
	DB *gorm.DB
}

// Stats returns envelope and entity counts and the latest modification time.
func (s *StatsService) Stats(ctx context.Context) (*repo.LogbookStats, error) {
	ctx, span := otel.Tracer("services/StatsService").Start(ctx, "Stats")
	defer span.End()
	return repo.Stats(ctx, s.DB)
}
