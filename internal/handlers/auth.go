package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/models"
	"github.com/votehubph/backend/internal/otp"
)

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// GoogleUserInfo represents user data from Google OAuth
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,string"`
	Name          string `json:"name"`
	Aud           string `json:"aud"`
}

// GoogleVerifier checks a Google ID token.
type GoogleVerifier func(ctx context.Context, idToken string) (*GoogleUserInfo, error)

var googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// NewGoogleVerifier checks tokens against Google's tokeninfo endpoint. Tokens
// issued to another client are rejected; an empty clientID accepts any
// audience.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	return func(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
		return verifyGoogleIDToken(ctx, idToken, clientID)
	}
}

// verifyGoogleIDToken verifies the Google ID token and returns user info
func verifyGoogleIDToken(ctx context.Context, idToken, clientID string) (*GoogleUserInfo, error) {
	u := googleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid google token")
	}

	var user GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if clientID != "" && user.Aud != clientID {
		return nil, fmt.Errorf("token issued for another client")
	}
	if !user.EmailVerified {
		return nil, fmt.Errorf("email not verified")
	}
	return &user, nil
}

type AuthHandler struct {
	db     *gorm.DB
	otp    *otp.Issuer
	tokens *middleware.Tokens
	google GoogleVerifier
}

func NewAuthHandler(db *gorm.DB, issuer *otp.Issuer, tokens *middleware.Tokens, google GoogleVerifier) *AuthHandler {
	return &AuthHandler{db: db, otp: issuer, tokens: tokens, google: google}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *AuthHandler) emailTaken(c *gin.Context, email string) (bool, error) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user models.User, message string) {
	token, err := h.tokens.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.InvalidToken, "Failed to generate token", err))
		return
	}
	c.JSON(status, models.AuthResponse{Token: token, User: user, Message: message})
}

// SendOTP starts registration by sending a code to the phone, or to the
// email address when no phone is given.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var input models.SendOTPRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	email := normalizeEmail(input.Email)

	taken, err := h.emailTaken(c, email)
	if err != nil {
		apperr.Respond(c, apperr.NewDatabase(err))
		return
	}
	if taken {
		apperr.Respond(c, apperr.New(apperr.Duplicate, "Email already registered", nil))
		return
	}

	dest := strings.TrimSpace(input.Phone)
	if dest == "" {
		dest = email
	}
	if err := h.otp.Issue(c.Request.Context(), email, dest); err != nil {
		apperr.Respond(c, apperr.New(apperr.Upstream, "Failed to send OTP", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func otpError(err error) error {
	switch {
	case errors.Is(err, otp.ErrNotFound):
		return apperr.New(apperr.OTPExpired, "OTP not found or expired", nil)
	case errors.Is(err, otp.ErrExpired):
		return apperr.New(apperr.OTPExpired, "OTP expired", nil)
	case errors.Is(err, otp.ErrMismatch):
		return apperr.New(apperr.OTPMismatch, "Invalid OTP", nil)
	default:
		return apperr.New(apperr.Database, "Failed to verify OTP", err)
	}
}

// VerifyOTP consumes the code and creates the account.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var input models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	email := normalizeEmail(input.Email)

	if err := h.otp.Verify(c.Request.Context(), email, input.OTP); err != nil {
		apperr.Respond(c, otpError(err))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.InvalidInput, "Failed to hash password", err))
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = generateNameFromEmail(email)
	}
	user := models.User{
		Name:         name,
		Email:        email,
		Password:     string(hashedPassword),
		AuthProvider: ProviderCredentials,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		apperr.Respond(c, dbError(err, "User"))
		return
	}
	h.respondWithToken(c, http.StatusCreated, user, "User registered successfully")
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}

	invalid := apperr.New(apperr.InvalidCredentials, "Invalid credentials", nil)
	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ? AND auth_provider = ?", normalizeEmail(input.Email), ProviderCredentials).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			apperr.Respond(c, apperr.NewDatabase(err))
			return
		}
		apperr.Respond(c, invalid)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		apperr.Respond(c, invalid)
		return
	}
	h.respondWithToken(c, http.StatusOK, user, "Login successful")
}

// GoogleLogin handles Google OAuth login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var input models.OAuthRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}

	googleUser, err := h.google(c.Request.Context(), input.Token)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.InvalidToken, "Invalid Google token", err))
		return
	}
	email := normalizeEmail(googleUser.Email)
	db := h.db.WithContext(c.Request.Context())

	var user models.User
	result := db.Where("email = ? OR google_id = ?", email, googleUser.Sub).First(&user)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(input.Name)
		if name == "" {
			name = googleUser.Name
		}
		if name == "" {
			name = generateNameFromEmail(email)
		}
		user = models.User{
			Name:         name,
			Email:        email,
			GoogleID:     googleUser.Sub,
			AuthProvider: ProviderGoogle,
		}
		if err := db.Create(&user).Error; err != nil {
			apperr.Respond(c, dbError(err, "User"))
			return
		}
	case result.Error != nil:
		apperr.Respond(c, apperr.NewDatabase(result.Error))
		return
	case user.GoogleID == "":
		// Existing credentials account: link it.
		user.GoogleID = googleUser.Sub
		if err := db.Model(&user).Update("google_id", user.GoogleID).Error; err != nil {
			apperr.Respond(c, apperr.NewDatabase(err))
			return
		}
	}
	h.respondWithToken(c, http.StatusOK, user, "")
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		apperr.Respond(c, dbError(err, "User"))
		return
	}
	c.JSON(http.StatusOK, user)
}

func generateNameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
