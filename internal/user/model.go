package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the alert-relevant projection of the users collection. Account
// management lives in another service; this service only reads identity,
// contact and push delivery fields, and owns last_sos_sent_at.
type User struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	Username        string             `bson:"username" json:"username"`
	Phone           string             `bson:"phone" json:"-"`
	PushToken       *string            `bson:"push_token,omitempty" json:"-"`
	LastAlertSentAt *time.Time         `bson:"last_sos_sent_at,omitempty" json:"-"`
}
