package user

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)

	// ReserveAlertSlot performs the cooldown check-and-record as a single
	// conditional update: it sets last_sos_sent_at to now only if the user
	// exists and the previous timestamp is absent or at least cooldown old.
	// It returns the document as it was before the update, or nil when the
	// condition did not match (cooldown active or unknown user).
	ReserveAlertSlot(ctx context.Context, id primitive.ObjectID, now time.Time, cooldown time.Duration) (*User, error)

	// RestoreAlertSlot puts the previous last_sos_sent_at value back after a
	// failed alert insert, so a rejected creation does not burn the cooldown.
	RestoreAlertSlot(ctx context.Context, id primitive.ObjectID, prev *time.Time) error

	// FindPushTargets returns every user holding a push token, optionally
	// excluding one user (the alert owner on created-alert fan-out).
	FindPushTargets(ctx context.Context, exclude primitive.ObjectID) ([]*User, error)
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(collection *mongo.Collection) UserRepository {
	_ = EnsureUserIndexes(context.Background(), collection)
	return &userRepository{
		collection: collection,
	}
}

func (u *userRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {

	var usr User

	err := u.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&usr)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &usr, nil
}

func (u *userRepository) ReserveAlertSlot(ctx context.Context, id primitive.ObjectID, now time.Time, cooldown time.Duration) (*User, error) {

	threshold := now.Add(-cooldown)

	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"last_sos_sent_at": bson.M{"$exists": false}},
			bson.M{"last_sos_sent_at": nil},
			bson.M{"last_sos_sent_at": bson.M{"$lte": threshold}},
		},
	}
	update := bson.M{"$set": bson.M{"last_sos_sent_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var prev User
	err := u.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &prev, nil
}

func (u *userRepository) RestoreAlertSlot(ctx context.Context, id primitive.ObjectID, prev *time.Time) error {

	var update bson.M
	if prev == nil {
		update = bson.M{"$unset": bson.M{"last_sos_sent_at": ""}}
	} else {
		update = bson.M{"$set": bson.M{"last_sos_sent_at": *prev}}
	}

	_, err := u.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (u *userRepository) FindPushTargets(ctx context.Context, exclude primitive.ObjectID) ([]*User, error) {

	filter := bson.M{
		"push_token": bson.M{"$exists": true, "$nin": bson.A{nil, ""}},
	}
	if exclude != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	cursor, err := u.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func EnsureUserIndexes(ctx context.Context, coll *mongo.Collection) error {

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "push_token", Value: 1}},
			Options: options.Index().SetName("by_push_token").SetSparse(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
