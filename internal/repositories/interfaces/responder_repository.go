package interfaces

import (
	"context"

	"resqlink/internal/models"
	"resqlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderRepository interface {
	Create(ctx context.Context, responder *models.CivilianResponder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CivilianResponder, error)
	GetByUserID(ctx context.Context, userID string) (*models.CivilianResponder, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// IncrementCounters bumps the aggregate totals after a completed
	// response; successful additionally bumps successful_responses.
	IncrementCounters(ctx context.Context, id primitive.ObjectID, successful bool) error

	List(ctx context.Context, params *utils.PaginationParams) ([]*models.CivilianResponder, int64, error)
}
