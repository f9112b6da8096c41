package mongodb

import (
	"context"
	"fmt"
	"time"

	"resqlink/internal/models"
	"resqlink/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type responseRepository struct {
	collection *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) interfaces.ResponseRepository {
	return &responseRepository{
		collection: db.Collection("sos_responses"),
	}
}

func (r *responseRepository) Create(ctx context.Context, response *models.SosResponse) error {
	response.ID = primitive.NewObjectID()
	response.CreatedAt = time.Now()
	response.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}

	return nil
}

func (r *responseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosResponse, error) {
	var response models.SosResponse
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("response not found")
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	return &response, nil
}

func (r *responseRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}

	return nil
}

func (r *responseRepository) GetBySignalID(ctx context.Context, signalID primitive.ObjectID) ([]*models.SosResponse, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sos_signal_id": signalID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find responses by signal: %w", err)
	}
	defer cursor.Close(ctx)

	var responses []*models.SosResponse
	for cursor.Next(ctx) {
		var response models.SosResponse
		if err := cursor.Decode(&response); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		responses = append(responses, &response)
	}

	return responses, nil
}

func (r *responseRepository) GetActiveByResponderID(ctx context.Context, responderID primitive.ObjectID) (*models.SosResponse, error) {
	var response models.SosResponse
	err := r.collection.FindOne(ctx, bson.M{
		"responder_id": responderID,
		"status": bson.M{"$nin": []models.ResponseStatus{
			models.ResponseStatusCompleted,
			models.ResponseStatusCancelled,
			models.ResponseStatusFailed,
		}},
	}).Decode(&response)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active response: %w", err)
	}

	return &response, nil
}

func (r *responseRepository) AppendChatMessage(ctx context.Context, id primitive.ObjectID, message models.ChatMessage) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"chat_messages": message},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}
