package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/votehubph/backend/internal/apperr"
)

const (
	issuer = "votehub-api"

	// UserIDKey holds the authenticated user id (int) in the gin context.
	UserIDKey = "user_id"
)

// Claims represents the JWT claims for our application
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and validates session tokens with one HMAC secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate creates a new JWT token for the given user
func (t *Tokens) Generate(userID int, email, name string) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.Itoa(userID),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate validates the provided JWT token
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// authenticate reads the bearer token. A missing header yields (nil, nil).
func (t *Tokens) authenticate(c *gin.Context) (*Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, apperr.New(apperr.InvalidToken, "Invalid authorization format", nil)
	}
	claims, err := t.Validate(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.New(apperr.InvalidToken, "Token expired", err)
		}
		return nil, apperr.New(apperr.InvalidToken, "Invalid token", err)
	}
	// X-User-Id is advisory; when present it must agree with the token.
	if h := c.GetHeader("X-User-Id"); h != "" && h != strconv.Itoa(claims.UserID) {
		return nil, apperr.New(apperr.Forbidden, "User id does not match token", nil)
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_name", claims.Name)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(t *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := t.authenticate(c)
		if err == nil && claims == nil {
			err = apperr.New(apperr.Unauthorized, "Authorization header required", nil)
		}
		if err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is sent and lets
// anonymous requests through.
func OptionalAuth(t *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := t.authenticate(c); err == nil && claims != nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}
