package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/models"
)

type UserHandler struct {
	db  *gorm.DB
	dir location.Directory
}

func NewUserHandler(db *gorm.DB, dir location.Directory) *UserHandler {
	return &UserHandler{db: db, dir: dir}
}

// GetUserProfile returns a user's public profile and approved posts.
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		apperr.Respond(c, dbError(err, "User"))
		return
	}

	var posts []models.PostSummary
	err = db.Model(&models.Post{}).Select(summaryColumns).
		Where("posts.user_id = ? AND posts.status = ?", userID, models.StatusApproved).
		Order("posts.created_at desc").Find(&posts).Error
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to fetch user posts", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"created_at": user.CreatedAt,
		},
		"posts": emptyIfNil(posts),
	})
}

// UpdateLocation completes the caller's profile: name and a location that
// must be consistent with the hierarchy.
func (h *UserHandler) UpdateLocation(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var input models.CompleteProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		apperr.Respond(c, apperr.NewInvalidInput("Name is required"))
		return
	}
	if input.Location.RegionID == 0 || input.Location.CityID == 0 {
		apperr.Respond(c, apperr.NewInvalidInput("region and city are required"))
		return
	}
	if err := location.Validate(c.Request.Context(), h.dir, input.Location); err != nil {
		apperr.Respond(c, locationError(err))
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		apperr.Respond(c, dbError(err, "User"))
		return
	}
	user.Name = name
	user.SetLocation(input.Location)
	user.ProfileCompleted = true
	err = db.Model(&user).Select("name", "region_id", "city_id", "district_id", "barangay_id", "profile_completed").
		Updates(&user).Error
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to update profile", err))
		return
	}
	c.JSON(http.StatusOK, user)
}
