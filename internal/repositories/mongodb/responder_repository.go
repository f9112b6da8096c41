package mongodb

import (
	"context"
	"fmt"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"
	"resqlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type responderRepository struct {
	collection *mongo.Collection
}

func NewResponderRepository(db *mongo.Database) interfaces.ResponderRepository {
	return &responderRepository{
		collection: db.Collection("civilian_responders"),
	}
}

func (r *responderRepository) Create(ctx context.Context, responder *models.CivilianResponder) error {
	responder.ID = primitive.NewObjectID()
	responder.CreatedAt = time.Now()
	responder.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, responder)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	return nil
}

func (r *responderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CivilianResponder, error) {
	var responder models.CivilianResponder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&responder)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("responder not found")
		}
		return nil, fmt.Errorf("failed to get responder: %w", err)
	}

	return &responder, nil
}

func (r *responderRepository) GetByUserID(ctx context.Context, userID string) (*models.CivilianResponder, error) {
	var responder models.CivilianResponder
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&responder)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("responder not found")
		}
		return nil, fmt.Errorf("failed to get responder: %w", err)
	}

	return &responder, nil
}

func (r *responderRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update responder: %w", err)
	}

	return nil
}

func (r *responderRepository) IncrementCounters(ctx context.Context, id primitive.ObjectID, successful bool) error {
	inc := bson.M{"total_responses": 1}
	if successful {
		inc["successful_responses"] = 1
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": inc,
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment responder counters: %w", err)
	}

	return nil
}

func (r *responderRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.CivilianResponder, int64, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter = params.GetSearchFilter([]string{"name", "phone", "user_id"})
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count responders: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find responders: %w", err)
	}
	defer cursor.Close(ctx)

	var responders []*models.CivilianResponder
	for cursor.Next(ctx) {
		var responder models.CivilianResponder
		if err := cursor.Decode(&responder); err != nil {
			return nil, 0, fmt.Errorf("failed to decode responder: %w", err)
		}
		responders = append(responders, &responder)
	}

	return responders, total, nil
}
