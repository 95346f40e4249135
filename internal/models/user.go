package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"unique;not null" json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"-"` // empty for OAuth users

	GoogleID     string `gorm:"index" json:"-"`
	AuthProvider string `json:"auth_provider"` // "credentials", "google"

	// Profile location, filled by profile completion.
	RegionID         *int `json:"region_id,omitempty"`
	CityID           *int `json:"city_id,omitempty"`
	DistrictID       *int `json:"district_id,omitempty"`
	BarangayID       *int `json:"barangay_id,omitempty"`
	ProfileCompleted bool `gorm:"default:false" json:"profile_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location returns the stored profile location as a selection.
func (u User) Location() LocationSelection {
	return LocationSelection{
		RegionID:   deref(u.RegionID),
		CityID:     deref(u.CityID),
		DistrictID: deref(u.DistrictID),
		BarangayID: deref(u.BarangayID),
	}
}

func (u *User) SetLocation(sel LocationSelection) {
	u.RegionID = ptr(sel.RegionID)
	u.CityID = ptr(sel.CityID)
	u.DistrictID = ptr(sel.DistrictID)
	u.BarangayID = ptr(sel.BarangayID)
}

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type OAuthRequest struct {
	Token string `json:"token" binding:"required"`
	Name  string `json:"name"`
}

type CompleteProfileRequest struct {
	Name     string            `json:"name" binding:"required"`
	Location LocationSelection `json:"location"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func ptr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
