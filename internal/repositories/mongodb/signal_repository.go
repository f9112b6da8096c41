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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type signalRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewSignalRepository(db *mongo.Database, cache CacheService) interfaces.SignalRepository {
	return &signalRepository{
		collection: db.Collection("sos_signals"),
		cache:      cache,
	}
}

func (r *signalRepository) Create(ctx context.Context, signal *models.SosSignal) error {
	signal.ID = primitive.NewObjectID()
	signal.CreatedAt = time.Now()
	signal.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, signal)
	if err != nil {
		return fmt.Errorf("failed to create signal: %w", err)
	}

	if signal.IsOpen() {
		r.cacheSignal(ctx, signal)
	}

	return nil
}

func (r *signalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SosSignal, error) {
	// Try cache first for open signals
	if signal := r.getSignalFromCache(ctx, id.Hex()); signal != nil {
		return signal, nil
	}

	var signal models.SosSignal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&signal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("signal not found")
		}
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	if signal.IsOpen() {
		r.cacheSignal(ctx, &signal)
	}

	return &signal, nil
}

func (r *signalRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update signal: %w", err)
	}

	r.invalidateSignalCache(ctx, id.Hex())

	return nil
}

func (r *signalRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}

	r.invalidateSignalCache(ctx, id.Hex())

	return nil
}

func (r *signalRepository) GetOpenSignals(ctx context.Context) ([]*models.SosSignal, error) {
	filter := bson.M{
		"status": bson.M{"$in": []models.SignalStatus{
			models.SignalStatusPending,
			models.SignalStatusAcknowledged,
			models.SignalStatusResponding,
		}},
		"$or": []bson.M{
			{"victim_safe_confirmation": nil},
			{"victim_safe_confirmation.is_safe": false},
		},
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(utils.NearbyResultLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to find open signals: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSignals(ctx, cursor)
}

func (r *signalRepository) GetByUserID(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	filter := bson.M{"user_id": userID}
	return r.findSignalsWithFilter(ctx, filter, params)
}

func (r *signalRepository) GetPendingOlderThan(ctx context.Context, cutoff time.Time, maxLevel int) ([]*models.SosSignal, error) {
	filter := bson.M{
		"status":           models.SignalStatusPending,
		"created_at":       bson.M{"$lt": cutoff},
		"escalation_level": bson.M{"$lt": maxLevel},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find pending signals: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeSignals(ctx, cursor)
}

func (r *signalRepository) AppendStatusUpdate(ctx context.Context, id primitive.ObjectID, update models.VictimStatusUpdate) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"victim_status_updates": update},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append status update: %w", err)
	}

	r.invalidateSignalCache(ctx, id.Hex())

	return nil
}

func (r *signalRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	return r.findSignalsWithFilter(ctx, bson.M{}, params)
}

func (r *signalRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count signals by status: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var result struct {
			Status models.SignalStatus `bson:"_id"`
			Count  int64               `bson:"count"`
		}

		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode status count: %w", err)
		}

		counts[string(result.Status)] = result.Count
	}

	return counts, nil
}

// Helper methods
func (r *signalRepository) findSignalsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.SosSignal, int64, error) {
	if params.Search != "" {
		searchFields := []string{"message", "incident_number", "location.address"}
		filter = bson.M{
			"$and": []bson.M{
				filter,
				params.GetSearchFilter(searchFields),
			},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count signals: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "created_at" || params.Sort == "" {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find signals: %w", err)
	}
	defer cursor.Close(ctx)

	signals, err := decodeSignals(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return signals, total, nil
}

func decodeSignals(ctx context.Context, cursor *mongo.Cursor) ([]*models.SosSignal, error) {
	var signals []*models.SosSignal
	for cursor.Next(ctx) {
		var signal models.SosSignal
		if err := cursor.Decode(&signal); err != nil {
			return nil, fmt.Errorf("failed to decode signal: %w", err)
		}
		signals = append(signals, &signal)
	}

	return signals, nil
}

// Cache operations
func (r *signalRepository) cacheSignal(ctx context.Context, signal *models.SosSignal) {
	if r.cache != nil && signal.IsOpen() {
		cacheKey := fmt.Sprintf("signal:%s", signal.ID.Hex())
		r.cache.Set(ctx, cacheKey, signal, 2*time.Minute) // Short TTL, signals mutate often
	}
}

func (r *signalRepository) getSignalFromCache(ctx context.Context, signalID string) *models.SosSignal {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("signal:%s", signalID)
	var signal models.SosSignal
	err := r.cache.Get(ctx, cacheKey, &signal)
	if err != nil {
		return nil
	}

	return &signal
}

func (r *signalRepository) invalidateSignalCache(ctx context.Context, signalID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("signal:%s", signalID)
		r.cache.Delete(ctx, cacheKey)
	}
}
