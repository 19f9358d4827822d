package alert

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"sos-service/helper"
	"sos-service/pkg/constants"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertHandler struct {
	alertService AlertService
}

func NewAlertHandler(alertService AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

func currentUserID(c *gin.Context) (primitive.ObjectID, error) {
	raw, exists := c.Get(constants.UserID)
	if !exists {
		return primitive.NilObjectID, errors.New("user not authenticated")
	}
	id, ok := raw.(string)
	if !ok {
		return primitive.NilObjectID, errors.New("user not authenticated")
	}
	return primitive.ObjectIDFromHex(id)
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {

	userID, err := currentUserID(c)
	if err != nil {
		helper.SendError(c, http.StatusUnauthorized, err, helper.ErrUnauthorized)
		return
	}

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.SendError(c, http.StatusBadRequest, err, helper.ErrInvalidRequest)
		return
	}

	created, err := h.alertService.CreateAlert(c, userID, &req)
	if err != nil {
		h.sendAlertError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, "success", created)
}

func (h *AlertHandler) GetActiveAlerts(c *gin.Context) {

	latStr := c.Query("latitude")
	lngStr := c.Query("longitude")
	if latStr == "" || lngStr == "" {
		helper.SendError(c, http.StatusBadRequest, errors.New("current location is required"), helper.ErrInvalidRequest)
		return
	}

	latitude, errLat := strconv.ParseFloat(latStr, 64)
	longitude, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		helper.SendError(c, http.StatusBadRequest, errors.New("invalid location"), helper.ErrInvalidRequest)
		return
	}

	// Optional identity: authenticated requesters do not see their own
	// alerts in the list.
	exclude := primitive.NilObjectID
	if id, err := currentUserID(c); err == nil {
		exclude = id
	}

	alerts, err := h.alertService.ListActiveNear(c, longitude, latitude, exclude)
	if err != nil {
		h.sendAlertError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", alerts)
}

func (h *AlertHandler) OfferHelp(c *gin.Context) {

	helperID, err := currentUserID(c)
	if err != nil {
		helper.SendError(c, http.StatusUnauthorized, err, helper.ErrUnauthorized)
		return
	}

	alertID, err := primitive.ObjectIDFromHex(c.Param("alertId"))
	if err != nil {
		helper.SendError(c, http.StatusBadRequest, fmt.Errorf("invalid alert id"), helper.ErrInvalidRequest)
		return
	}

	offer, err := h.alertService.OfferHelp(c, alertID, helperID)
	if err != nil {
		h.sendAlertError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, offer.Message, offer)
}

func (h *AlertHandler) CancelHelp(c *gin.Context) {

	helperID, err := currentUserID(c)
	if err != nil {
		helper.SendError(c, http.StatusUnauthorized, err, helper.ErrUnauthorized)
		return
	}

	alertID, err := primitive.ObjectIDFromHex(c.Param("alertId"))
	if err != nil {
		helper.SendError(c, http.StatusBadRequest, fmt.Errorf("invalid alert id"), helper.ErrInvalidRequest)
		return
	}

	if err := h.alertService.CancelHelp(c, alertID, helperID); err != nil {
		h.sendAlertError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "You are no longer helping", nil)
}

func (h *AlertHandler) ResolveAlert(c *gin.Context) {

	userID, err := currentUserID(c)
	if err != nil {
		helper.SendError(c, http.StatusUnauthorized, err, helper.ErrUnauthorized)
		return
	}

	alertID, err := primitive.ObjectIDFromHex(c.Param("alertId"))
	if err != nil {
		helper.SendError(c, http.StatusBadRequest, fmt.Errorf("invalid alert id"), helper.ErrInvalidRequest)
		return
	}

	resolved, err := h.alertService.ResolveAlert(c, alertID, userID, ResolvedByUser)
	if err != nil {
		h.sendAlertError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, "success", resolved)
}

func (h *AlertHandler) sendAlertError(c *gin.Context, err error) {

	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		helper.SendRateLimited(c, err, rateLimit.SecondsRemaining)
		return
	}

	switch {
	case errors.Is(err, ErrAlertNotFound), errors.Is(err, ErrUserNotFound):
		helper.SendError(c, http.StatusNotFound, err, helper.ErrNotFound)
	case errors.Is(err, ErrInvalidCoordinates):
		helper.SendError(c, http.StatusBadRequest, err, helper.ErrInvalidRequest)
	case errors.Is(err, ErrNotOwner):
		helper.SendError(c, http.StatusForbidden, err, helper.ErrForbidden)
	case errors.Is(err, ErrOwnAlert),
		errors.Is(err, ErrAlreadyHelping),
		errors.Is(err, ErrNotHelping),
		errors.Is(err, ErrAlreadyResolved):
		helper.SendError(c, http.StatusBadRequest, err, helper.ErrConflict)
	default:
		helper.SendError(c, http.StatusInternalServerError, err, helper.ErrInvalidOperation)
	}
}
