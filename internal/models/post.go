package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Education is stored as a JSON column on the post.
type Education struct {
	Level  string `json:"level"`
	School string `json:"school"`
}

// Post is a candidate profile.
type Post struct {
	ID           int            `gorm:"primaryKey" json:"id"`
	UserID       int            `gorm:"index;not null" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Level        string         `gorm:"index" json:"level"` // local, national, partylist
	Position     string         `json:"position"`
	Party        string         `json:"party,omitempty"`
	Bio          string         `json:"bio,omitempty"`
	Platform     string         `json:"platform,omitempty"`
	Education    []Education    `gorm:"serializer:json" json:"education"`
	Achievements pq.StringArray `gorm:"type:text[]" json:"achievements"`
	Images       []string       `gorm:"serializer:json" json:"images"`
	ProfilePhoto string         `json:"profile_photo,omitempty"`
	Status       string         `gorm:"index;default:pending" json:"status"`

	RegionID   int  `gorm:"index" json:"region_id"`
	CityID     int  `gorm:"index" json:"city_id"`
	DistrictID *int `json:"district_id,omitempty"`
	BarangayID *int `json:"barangay_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Post) Location() LocationSelection {
	return LocationSelection{
		RegionID:   p.RegionID,
		CityID:     p.CityID,
		DistrictID: deref(p.DistrictID),
		BarangayID: deref(p.BarangayID),
	}
}

type CreatePostRequest struct {
	Name         string            `json:"name" binding:"required"`
	Level        string            `json:"level" binding:"required,oneof=local national partylist"`
	Position     string            `json:"position" binding:"required"`
	Party        string            `json:"party"`
	Bio          string            `json:"bio"`
	Platform     string            `json:"platform"`
	Education    []Education       `json:"education"`
	Achievements []string          `json:"achievements"`
	Images       []string          `json:"images"`
	ProfilePhoto string            `json:"profile_photo"`
	Location     LocationSelection `json:"location"`
}

// PostSummary is one entry in a listing.
type PostSummary struct {
	Post
	VotesCount    int `json:"votes_count"`
	CommentsCount int `json:"comments_count"`
}

// PostDetail is the candidate page payload: the post, its counters, the
// viewer's vote state and the comment tree.
type PostDetail struct {
	Post                Post          `json:"post"`
	VotesCount          int           `json:"votes_count"`
	CommentsCount       int           `json:"comments_count"`
	UserHasVoted        bool          `json:"user_has_voted"`
	UserVoteIsAnonymous bool          `json:"user_vote_is_anonymous"`
	Comments            []CommentView `json:"comments"`
}

// PostFilter narrows a listing. Zero fields do not filter.
type PostFilter struct {
	RegionID   int    `form:"region_id"`
	CityID     int    `form:"city_id"`
	DistrictID int    `form:"district_id"`
	BarangayID int    `form:"barangay_id"`
	Level      string `form:"level"`
	Status     string `form:"status"`
}
