package interfaces

import (
	"context"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SignalRepository interface {
	Create(ctx context.Context, signal *models.SosSignal) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosSignal, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// GetOpenSignals returns all non-terminal signals (pending, acknowledged,
	// responding) that are not self-marked safe. The nearby listing filters
	// and sorts these in memory.
	GetOpenSignals(ctx context.Context) ([]*models.SosSignal, error)
	GetByUserID(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SosSignal, int64, error)

	// Escalation sweep support
	GetPendingOlderThan(ctx context.Context, cutoff time.Time, maxLevel int) ([]*models.SosSignal, error)

	// AppendStatusUpdate pushes a timeline/chat entry onto the signal.
	AppendStatusUpdate(ctx context.Context, id primitive.ObjectID, update models.VictimStatusUpdate) error

	// Admin listing
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.SosSignal, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
