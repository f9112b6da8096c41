package interfaces

import (
	"context"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MissingPersonRepository interface {
	Create(ctx context.Context, person *models.MissingPerson) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.MissingPerson, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// FindNearbyRecent backs the coarse proximity+time-window duplicate
	// check applied to citizen submissions.
	FindNearbyRecent(ctx context.Context, lat, lng, radiusKM float64, since time.Time) ([]*models.MissingPerson, error)

	List(ctx context.Context, params *utils.PaginationParams) ([]*models.MissingPerson, int64, error)
}
