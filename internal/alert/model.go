package alert

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusResolved Status = "RESOLVED"
)

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

func NewPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: [2]float64{longitude, latitude},
	}
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// SOSAlert is the aggregate root of the emergency subsystem. Owner and
// location are immutable after creation; status only ever moves
// ACTIVE -> RESOLVED and helper mutations are legal only while ACTIVE.
type SOSAlert struct {
	ID         primitive.ObjectID   `bson:"_id" json:"_id"`
	UserID     primitive.ObjectID   `bson:"user" json:"user"`
	Location   GeoPoint             `bson:"location" json:"location"`
	Status     Status               `bson:"status" json:"status"`
	Helpers    []primitive.ObjectID `bson:"helpers" json:"helpers"`
	ResolvedAt *time.Time           `bson:"resolved_at,omitempty" json:"resolvedAt"`
	ExpireAt   time.Time            `bson:"expire_at" json:"expireAt"`
	CreatedAt  time.Time            `bson:"created_at" json:"createdAt"`
}

// UserSummary is the populated owner reference exposed on the wire; storage
// keeps reference ids only.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
}

// NearbyAlert is a read model produced by the geo query: an active alert with
// its owner populated and the spherical distance from the query point.
type NearbyAlert struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	User      UserSummary        `bson:"user" json:"user"`
	Location  GeoPoint           `bson:"location" json:"location"`
	Status    Status             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	Distance  float64            `bson:"distance" json:"distance"`
}

// AlertResponse is the wire representation of an alert with the owner
// reference populated.
type AlertResponse struct {
	ID         primitive.ObjectID   `json:"_id"`
	User       UserSummary          `json:"user"`
	Location   GeoPoint             `json:"location"`
	Status     Status               `json:"status"`
	Helpers    []primitive.ObjectID `json:"helpers"`
	ResolvedAt *time.Time           `json:"resolvedAt"`
	ExpireAt   time.Time            `json:"expireAt"`
	CreatedAt  time.Time            `json:"createdAt"`
}

func NewAlertResponse(a *SOSAlert, owner UserSummary) *AlertResponse {
	helpers := a.Helpers
	if helpers == nil {
		helpers = []primitive.ObjectID{}
	}
	return &AlertResponse{
		ID:         a.ID,
		User:       owner,
		Location:   a.Location,
		Status:     a.Status,
		Helpers:    helpers,
		ResolvedAt: a.ResolvedAt,
		ExpireAt:   a.ExpireAt,
		CreatedAt:  a.CreatedAt,
	}
}
