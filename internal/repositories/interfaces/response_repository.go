package interfaces

import (
	"context"

	"resqlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponseRepository interface {
	Create(ctx context.Context, response *models.SosResponse) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosResponse, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	GetBySignalID(ctx context.Context, signalID primitive.ObjectID) ([]*models.SosResponse, error)
	GetActiveByResponderID(ctx context.Context, responderID primitive.ObjectID) (*models.SosResponse, error)

	AppendChatMessage(ctx context.Context, id primitive.ObjectID, message models.ChatMessage) error
}
