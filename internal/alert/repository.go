package alert

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *SOSAlert) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*SOSAlert, error)
	FindActiveNear(ctx context.Context, longitude, latitude float64, exclude primitive.ObjectID, limit int64) ([]*NearbyAlert, error)
	FindExpiredActive(ctx context.Context, now time.Time) ([]*SOSAlert, error)

	// AddHelper, RemoveHelper and Resolve are conditional updates guarded by
	// the current document state; they return nil when the guard does not
	// match, which is how concurrent mutations on the same alert are
	// serialized without application-level locking.
	AddHelper(ctx context.Context, alertID, helperID primitive.ObjectID) (*SOSAlert, error)
	RemoveHelper(ctx context.Context, alertID, helperID primitive.ObjectID) (*SOSAlert, error)
	Resolve(ctx context.Context, alertID primitive.ObjectID, now time.Time) (*SOSAlert, error)
}

type alertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(collection *mongo.Collection) AlertRepository {
	_ = EnsureAlertIndexes(context.Background(), collection)
	return &alertRepository{
		collection: collection,
	}
}

func (r *alertRepository) Create(ctx context.Context, alert *SOSAlert) error {

	_, err := r.collection.InsertOne(ctx, alert)
	if err != nil {
		return err
	}

	return nil
}

func (r *alertRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*SOSAlert, error) {

	var alert SOSAlert

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &alert, nil
}

func (r *alertRepository) FindActiveNear(ctx context.Context, longitude, latitude float64, exclude primitive.ObjectID, limit int64) ([]*NearbyAlert, error) {

	match := bson.M{"status": StatusActive}
	if exclude != primitive.NilObjectID {
		match["user"] = bson.M{"$ne": exclude}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          NewPoint(longitude, latitude),
			"distanceField": "distance",
			"spherical":     true,
			"query":         match,
		}}},
		// Freshest emergencies surface first, distance breaks ties.
		{{Key: "$sort", Value: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "distance", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"_id":           1,
			"location":      1,
			"status":        1,
			"created_at":    1,
			"distance":      1,
			"user._id":      1,
			"user.username": 1,
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	alerts := make([]*NearbyAlert, 0)
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *alertRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]*SOSAlert, error) {

	filter := bson.M{
		"status":    StatusActive,
		"expire_at": bson.M{"$lte": now},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var alerts []*SOSAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *alertRepository) AddHelper(ctx context.Context, alertID, helperID primitive.ObjectID) (*SOSAlert, error) {

	filter := bson.M{
		"_id":     alertID,
		"status":  StatusActive,
		"user":    bson.M{"$ne": helperID},
		"helpers": bson.M{"$ne": helperID},
	}
	update := bson.M{"$addToSet": bson.M{"helpers": helperID}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *alertRepository) RemoveHelper(ctx context.Context, alertID, helperID primitive.ObjectID) (*SOSAlert, error) {

	filter := bson.M{
		"_id":     alertID,
		"status":  StatusActive,
		"helpers": helperID,
	}
	update := bson.M{"$pull": bson.M{"helpers": helperID}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *alertRepository) Resolve(ctx context.Context, alertID primitive.ObjectID, now time.Time) (*SOSAlert, error) {

	filter := bson.M{
		"_id":    alertID,
		"status": StatusActive,
	}
	update := bson.M{"$set": bson.M{
		"status":      StatusResolved,
		"resolved_at": now,
	}}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *alertRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*SOSAlert, error) {

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var alert SOSAlert
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &alert, nil
}

// EnsureAlertIndexes creates the geo and sweep indexes. There is deliberately
// no TTL index on expire_at: expiry must go through the sweeper so the
// expired notification fires and resolved_at is recorded before the document
// stops being an active alert.
func EnsureAlertIndexes(ctx context.Context, coll *mongo.Collection) error {

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("by_status_created"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "expire_at", Value: 1},
			},
			Options: options.Index().SetName("by_status_expire"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
