package middleware

import (
	"errors"
	"net/http"
	"strings"

	"sos-service/helper"
	"sos-service/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func parseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Secured rejects requests that do not carry a valid bearer token.
func Secured(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			helper.SendError(c, http.StatusUnauthorized, errors.New("missing authorization token"), helper.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString, secret)
		if err != nil {
			helper.SendError(c, http.StatusUnauthorized, errors.New("invalid authorization token"), helper.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(constants.UserID, claims.UserID)
		c.Set(constants.Username, claims.Username)
		c.Next()
	}
}

// Identify resolves the caller identity when a valid token is present but
// never rejects the request. Used on public endpoints that only tailor their
// output per user.
func Identify(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := parseToken(tokenString, secret); err == nil {
				c.Set(constants.UserID, claims.UserID)
				c.Set(constants.Username, claims.Username)
			}
		}
		c.Next()
	}
}

// ParseWSToken validates the token handed over in the websocket handshake and
// returns the user id it carries.
func ParseWSToken(tokenString, secret string) (string, error) {
	claims, err := parseToken(tokenString, secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
