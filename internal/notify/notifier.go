package notify

import (
	"context"
	"fmt"

	"sos-service/internal/alert"
	"sos-service/internal/realtime"
	"sos-service/internal/user"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Realtime event names, part of the client protocol.
const (
	EventNewAlert      = "new-sos-alert"
	EventHelperArrived = "helper-arrived"
	EventHelperLeft    = "helper-left"
	EventAlertResolved = "sos-alert-resolved"
	EventAlertExpired  = "sos-alert-expired"
)

// Notifier fans each lifecycle event out to the realtime channel and the
// push gateway. The two channels are independent and unordered; every
// failure is logged and swallowed here, nothing propagates back to the
// state transition that triggered it.
type Notifier struct {
	users    user.UserRepository
	push     *PushSender
	realtime realtime.Publisher
	logger   *zap.SugaredLogger
}

func NewNotifier(users user.UserRepository, push *PushSender, rt realtime.Publisher, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{
		users:    users,
		push:     push,
		realtime: rt,
		logger:   logger,
	}
}

func (n *Notifier) AlertCreated(ctx context.Context, a *alert.SOSAlert, owner *user.User) {

	payload := alert.NewAlertResponse(a, alert.UserSummary{ID: owner.ID, Username: owner.Username})
	n.publish(ctx, realtime.TopicGlobal, realtime.Event{Name: EventNewAlert, Data: payload})

	targets, err := n.users.FindPushTargets(ctx, a.UserID)
	if err != nil {
		n.logger.Errorf("Push target lookup failed for alert %s: %v", a.ID.Hex(), err)
		return
	}
	tokens := collectTokens(targets)
	if len(tokens) == 0 {
		return
	}

	n.push.Send(ctx, tokens,
		&messaging.Notification{
			Title: "🚨 New SOS Alert",
			Body:  fmt.Sprintf("%s has sent an emergency alert!", owner.Username),
		},
		alertData(a.ID, EventNewAlert),
	)
}

func (n *Notifier) HelperArrived(ctx context.Context, a *alert.SOSAlert, owner *user.User, helperUsername string) {

	n.publish(ctx, realtime.TopicUser(owner.ID.Hex()), realtime.Event{
		Name: EventHelperArrived,
		Data: map[string]string{
			"alertId":        a.ID.Hex(),
			"helperUsername": helperUsername,
		},
	})

	n.pushToOwner(ctx, owner,
		&messaging.Notification{
			Title: "✅ Help is on the way!",
			Body:  fmt.Sprintf("%s is offering to help you", helperUsername),
		},
		alertData(a.ID, EventHelperArrived),
	)
}

func (n *Notifier) HelperLeft(ctx context.Context, a *alert.SOSAlert, owner *user.User, helperUsername string) {

	n.publish(ctx, realtime.TopicUser(owner.ID.Hex()), realtime.Event{
		Name: EventHelperLeft,
		Data: map[string]string{
			"alertId":        a.ID.Hex(),
			"helperUsername": helperUsername,
		},
	})

	n.pushToOwner(ctx, owner,
		&messaging.Notification{
			Title: "Helper left",
			Body:  fmt.Sprintf("%s is no longer helping", helperUsername),
		},
		alertData(a.ID, EventHelperLeft),
	)
}

func (n *Notifier) AlertResolved(ctx context.Context, a *alert.SOSAlert) {

	n.publish(ctx, realtime.TopicGlobal, realtime.Event{
		Name: EventAlertResolved,
		Data: map[string]string{"alertId": a.ID.Hex()},
	})

	targets, err := n.users.FindPushTargets(ctx, primitive.NilObjectID)
	if err != nil {
		n.logger.Errorf("Push target lookup failed for alert %s: %v", a.ID.Hex(), err)
		return
	}
	tokens := collectTokens(targets)
	if len(tokens) == 0 {
		return
	}

	n.push.Send(ctx, tokens,
		&messaging.Notification{
			Title: "SOS Alert Resolved",
			Body:  "An SOS alert near you has been resolved.",
		},
		alertData(a.ID, EventAlertResolved),
	)
}

func (n *Notifier) AlertExpired(ctx context.Context, a *alert.SOSAlert, owner *user.User) {

	n.publish(ctx, realtime.TopicGlobal, realtime.Event{
		Name: EventAlertExpired,
		Data: map[string]string{"alertId": a.ID.Hex()},
	})

	n.pushToOwner(ctx, owner,
		&messaging.Notification{
			Title: "⏰ SOS Alert Expired",
			Body:  "Your SOS alert has expired after 2 hours.",
		},
		alertData(a.ID, EventAlertExpired),
	)
}

func (n *Notifier) publish(ctx context.Context, topic string, event realtime.Event) {
	if err := n.realtime.Publish(ctx, topic, event); err != nil {
		n.logger.Warnf("Realtime publish of %s failed: %v", event.Name, err)
	}
}

func (n *Notifier) pushToOwner(ctx context.Context, owner *user.User, notification *messaging.Notification, data map[string]string) {
	if owner.PushToken == nil || *owner.PushToken == "" {
		n.logger.Debugf("User %s has no push token, skipping push", owner.ID.Hex())
		return
	}
	n.push.Send(ctx, []string{*owner.PushToken}, notification, data)
}

func alertData(id primitive.ObjectID, event string) map[string]string {
	return map[string]string{
		"alertId": id.Hex(),
		"event":   event,
	}
}

func collectTokens(users []*user.User) []string {
	tokens := make([]string, 0, len(users))
	for _, u := range users {
		if u.PushToken != nil && *u.PushToken != "" {
			tokens = append(tokens, *u.PushToken)
		}
	}
	return tokens
}
