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

type missingPersonRepository struct {
	collection *mongo.Collection
}

func NewMissingPersonRepository(db *mongo.Database) interfaces.MissingPersonRepository {
	return &missingPersonRepository{
		collection: db.Collection("missing_persons"),
	}
}

func (r *missingPersonRepository) Create(ctx context.Context, person *models.MissingPerson) error {
	person.ID = primitive.NewObjectID()
	person.CreatedAt = time.Now()
	person.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, person)
	if err != nil {
		return fmt.Errorf("failed to create missing person: %w", err)
	}

	return nil
}

func (r *missingPersonRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MissingPerson, error) {
	var person models.MissingPerson
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&person)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("missing person not found")
		}
		return nil, fmt.Errorf("failed to get missing person: %w", err)
	}

	return &person, nil
}

func (r *missingPersonRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update missing person: %w", err)
	}

	return nil
}

func (r *missingPersonRepository) FindNearbyRecent(ctx context.Context, lat, lng, radiusKM float64, since time.Time) ([]*models.MissingPerson, error) {
	radiusMeters := radiusKM * 1000

	filter := bson.M{
		"last_seen_location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": radiusMeters,
			},
		},
		"created_at": bson.M{"$gte": since},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby missing persons: %w", err)
	}
	defer cursor.Close(ctx)

	var persons []*models.MissingPerson
	for cursor.Next(ctx) {
		var person models.MissingPerson
		if err := cursor.Decode(&person); err != nil {
			return nil, fmt.Errorf("failed to decode missing person: %w", err)
		}
		persons = append(persons, &person)
	}

	return persons, nil
}

func (r *missingPersonRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.MissingPerson, int64, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter = params.GetSearchFilter([]string{"name", "description", "last_seen_location.address"})
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count missing persons: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find missing persons: %w", err)
	}
	defer cursor.Close(ctx)

	var persons []*models.MissingPerson
	for cursor.Next(ctx) {
		var person models.MissingPerson
		if err := cursor.Decode(&person); err != nil {
			return nil, 0, fmt.Errorf("failed to decode missing person: %w", err)
		}
		persons = append(persons, &person)
	}

	return persons, total, nil
}
