package alert

import (
	"context"
	"math"
	"time"

	"sos-service/config"
	"sos-service/internal/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ResolveSource distinguishes an owner-initiated resolve from the expiration
// sweeper, which bypasses the ownership check.
type ResolveSource string

const (
	ResolvedByUser    ResolveSource = "user"
	ResolvedBySweeper ResolveSource = "sweeper"
)

// Notifier fans a lifecycle event out to the realtime channel and the push
// gateway. Implementations must swallow delivery failures; a state change
// that already committed is never reverted because a notification failed.
type Notifier interface {
	AlertCreated(ctx context.Context, a *SOSAlert, owner *user.User)
	HelperArrived(ctx context.Context, a *SOSAlert, owner *user.User, helperUsername string)
	HelperLeft(ctx context.Context, a *SOSAlert, owner *user.User, helperUsername string)
	AlertResolved(ctx context.Context, a *SOSAlert)
	AlertExpired(ctx context.Context, a *SOSAlert, owner *user.User)
}

type AlertService interface {
	CreateAlert(ctx context.Context, userID primitive.ObjectID, req *CreateAlertRequest) (*AlertResponse, error)
	ListActiveNear(ctx context.Context, longitude, latitude float64, exclude primitive.ObjectID) ([]*NearbyAlert, error)
	OfferHelp(ctx context.Context, alertID, helperID primitive.ObjectID) (*HelpOffer, error)
	CancelHelp(ctx context.Context, alertID, helperID primitive.ObjectID) error
	ResolveAlert(ctx context.Context, alertID, requesterID primitive.ObjectID, source ResolveSource) (*SOSAlert, error)
	SweepExpired(ctx context.Context) error
}

type alertService struct {
	alerts   AlertRepository
	users    user.UserRepository
	notifier Notifier
	logger   *zap.SugaredLogger

	ttl         time.Duration
	cooldown    time.Duration
	nearbyLimit int64

	// dispatch runs a fan-out function without blocking the caller.
	dispatch func(fn func(ctx context.Context))
}

func NewAlertService(alerts AlertRepository, users user.UserRepository, notifier Notifier, logger *zap.SugaredLogger, cfg *config.Config) AlertService {
	s := &alertService{
		alerts:      alerts,
		users:       users,
		notifier:    notifier,
		logger:      logger,
		ttl:         cfg.AlertTTL,
		cooldown:    cfg.AlertCooldown,
		nearbyLimit: cfg.NearbyLimit,
	}
	timeout := cfg.NotifyTimeout
	s.dispatch = func(fn func(ctx context.Context)) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			fn(ctx)
		}()
	}
	return s
}

func validCoordinates(longitude, latitude float64) bool {
	return longitude >= -180 && longitude <= 180 && latitude >= -90 && latitude <= 90
}

func (s *alertService) CreateAlert(ctx context.Context, userID primitive.ObjectID, req *CreateAlertRequest) (*AlertResponse, error) {

	if !validCoordinates(req.Longitude, req.Latitude) {
		return nil, ErrInvalidCoordinates
	}

	now := time.Now().UTC()

	// One conditional update is both the cooldown check and the record; two
	// racing creates from the same user cannot both pass it.
	owner, err := s.users.ReserveAlertSlot(ctx, userID, now, s.cooldown)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		usr, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if usr == nil {
			return nil, ErrUserNotFound
		}
		remaining := int64(1)
		if usr.LastAlertSentAt != nil {
			elapsed := now.Sub(*usr.LastAlertSentAt)
			remaining = int64(math.Ceil((s.cooldown - elapsed).Seconds()))
			if remaining < 1 {
				remaining = 1
			}
		}
		return nil, &RateLimitError{SecondsRemaining: remaining}
	}

	newAlert := &SOSAlert{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Location:  NewPoint(req.Longitude, req.Latitude),
		Status:    StatusActive,
		Helpers:   []primitive.ObjectID{},
		ExpireAt:  now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.alerts.Create(ctx, newAlert); err != nil {
		// The reservation already recorded now; give the previous timestamp
		// back so the failed attempt does not burn the cooldown.
		if restoreErr := s.users.RestoreAlertSlot(ctx, userID, owner.LastAlertSentAt); restoreErr != nil {
			s.logger.Errorf("Failed to restore alert slot for user %s: %v", userID.Hex(), restoreErr)
		}
		return nil, err
	}

	ownerCopy := *owner
	alertCopy := *newAlert
	s.dispatch(func(ctx context.Context) {
		s.notifier.AlertCreated(ctx, &alertCopy, &ownerCopy)
	})

	return NewAlertResponse(newAlert, UserSummary{ID: owner.ID, Username: owner.Username}), nil
}

func (s *alertService) ListActiveNear(ctx context.Context, longitude, latitude float64, exclude primitive.ObjectID) ([]*NearbyAlert, error) {

	if !validCoordinates(longitude, latitude) {
		return nil, ErrInvalidCoordinates
	}

	return s.alerts.FindActiveNear(ctx, longitude, latitude, exclude, s.nearbyLimit)
}

func (s *alertService) OfferHelp(ctx context.Context, alertID, helperID primitive.ObjectID) (*HelpOffer, error) {

	updated, err := s.alerts.AddHelper(ctx, alertID, helperID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.classifyHelpConflict(ctx, alertID, helperID, true)
	}

	owner, err := s.users.FindByID(ctx, updated.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	helperUsername := s.usernameOf(ctx, helperID)

	ownerCopy := *owner
	alertCopy := *updated
	s.dispatch(func(ctx context.Context) {
		s.notifier.HelperArrived(ctx, &alertCopy, &ownerCopy, helperUsername)
	})

	return &HelpOffer{
		Message:     "Help offer successful",
		PhoneNumber: owner.Phone,
	}, nil
}

func (s *alertService) CancelHelp(ctx context.Context, alertID, helperID primitive.ObjectID) error {

	updated, err := s.alerts.RemoveHelper(ctx, alertID, helperID)
	if err != nil {
		return err
	}
	if updated == nil {
		return s.classifyHelpConflict(ctx, alertID, helperID, false)
	}

	helperUsername := s.usernameOf(ctx, helperID)

	alertCopy := *updated
	s.dispatch(func(ctx context.Context) {
		owner, err := s.users.FindByID(ctx, alertCopy.UserID)
		if err != nil || owner == nil {
			s.logger.Warnf("Owner lookup failed for alert %s: %v", alertCopy.ID.Hex(), err)
			return
		}
		s.notifier.HelperLeft(ctx, &alertCopy, owner, helperUsername)
	})

	return nil
}

// classifyHelpConflict turns a failed conditional helper update into the
// precise rejection the caller should see. The conditional update stays the
// authoritative gate; this read is only for error reporting.
func (s *alertService) classifyHelpConflict(ctx context.Context, alertID, helperID primitive.ObjectID, joining bool) error {

	a, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAlertNotFound
	}
	if joining && a.UserID == helperID {
		return ErrOwnAlert
	}
	helping := false
	for _, id := range a.Helpers {
		if id == helperID {
			helping = true
			break
		}
	}
	if joining {
		if helping {
			return ErrAlreadyHelping
		}
		return ErrAlreadyResolved
	}
	if !helping {
		return ErrNotHelping
	}
	return ErrAlreadyResolved
}

func (s *alertService) ResolveAlert(ctx context.Context, alertID, requesterID primitive.ObjectID, source ResolveSource) (*SOSAlert, error) {

	current, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAlertNotFound
	}
	if source != ResolvedBySweeper && current.UserID != requesterID {
		return nil, ErrNotOwner
	}

	now := time.Now().UTC()
	updated, err := s.alerts.Resolve(ctx, alertID, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Already resolved, possibly by a racing request or an overlapping
		// sweep run. A no-op, not a fatal error.
		return nil, ErrAlreadyResolved
	}

	alertCopy := *updated
	expired := source == ResolvedBySweeper
	s.dispatch(func(ctx context.Context) {
		s.notifier.AlertResolved(ctx, &alertCopy)
		if expired {
			owner, err := s.users.FindByID(ctx, alertCopy.UserID)
			if err != nil || owner == nil {
				s.logger.Warnf("Owner lookup failed for expired alert %s: %v", alertCopy.ID.Hex(), err)
				return
			}
			s.notifier.AlertExpired(ctx, &alertCopy, owner)
		}
	})

	return updated, nil
}

// SweepExpired forces resolution of every active alert past its expire_at.
// Each alert is handled independently; one failure never aborts the sweep.
func (s *alertService) SweepExpired(ctx context.Context) error {

	now := time.Now().UTC()

	expired, err := s.alerts.FindExpiredActive(ctx, now)
	if err != nil {
		return err
	}

	if len(expired) > 0 {
		s.logger.Infof("Sweeping %d expired alert(s)", len(expired))
	}

	for _, a := range expired {
		_, err := s.ResolveAlert(ctx, a.ID, a.UserID, ResolvedBySweeper)
		switch {
		case err == ErrAlreadyResolved:
			// Another sweep or the owner got there first.
			s.logger.Debugf("Alert %s already resolved, skipping", a.ID.Hex())
		case err != nil:
			s.logger.Errorf("Failed to expire alert %s: %v", a.ID.Hex(), err)
		}
	}

	return nil
}

func (s *alertService) usernameOf(ctx context.Context, id primitive.ObjectID) string {
	usr, err := s.users.FindByID(ctx, id)
	if err != nil || usr == nil {
		return "Someone"
	}
	return usr.Username
}
