package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/otp"
)

// Detector turns a coordinate, or failing that a client address, into hints.
type Detector interface {
	Detect(ctx context.Context, lat, lon *float64, clientIP string) (location.Hints, error)
}

// Deps are the collaborators shared by the handlers. Detector may be nil.
type Deps struct {
	DB        *gorm.DB
	Directory location.Directory
	Resolver  *location.Resolver
	Detector  Detector
	OTP       *otp.Issuer
	Tokens    *middleware.Tokens
	Google    GoogleVerifier
	// GoogleClientID is the expected audience of Google ID tokens when
	// Google is nil.
	GoogleClientID string
}

// Handler combines all handler types
type Handler struct {
	Location *LocationHandler
	Auth     *AuthHandler
	Post     *PostHandler
	Comment  *CommentHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Resolver == nil {
		d.Resolver = location.NewResolver(d.Directory)
	}
	if d.Google == nil {
		d.Google = NewGoogleVerifier(d.GoogleClientID)
	}
	return &Handler{
		Location: NewLocationHandler(d.Directory, d.Resolver, d.Detector),
		Auth:     NewAuthHandler(d.DB, d.OTP, d.Tokens, d.Google),
		Post:     NewPostHandler(d.DB, d.Directory),
		Comment:  NewCommentHandler(d.DB),
		User:     NewUserHandler(d.DB, d.Directory),
	}
}

func paramID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.NewInvalidInput("Invalid " + name)
	}
	return id, nil
}

func currentUser(c *gin.Context) (int, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, apperr.NewUnauthorized("user not authenticated")
	}
	return id, nil
}

// dbError maps a gorm error to an API error. what names the missing record.
func dbError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NewNotFound(what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.Duplicate, what+" already exists", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperr.New(apperr.InvalidInput, what+" references a record that does not exist", err)
	}
	// Codes gorm does not translate arrive as the driver's error.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23502" {
		return apperr.New(apperr.InvalidInput, pgErr.ColumnName+" is required", err)
	}
	return apperr.NewDatabase(err)
}

// locationError maps location validation failures.
func locationError(err error) error {
	if errors.Is(err, location.ErrInconsistent) {
		return apperr.New(apperr.InconsistentLocation, err.Error(), nil)
	}
	return apperr.New(apperr.Database, "Failed to load locations", err)
}
