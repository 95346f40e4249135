package models

import "time"

// Vote is one user's vote on one post. A second vote toggles it off.
type Vote struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	UserID      int       `gorm:"uniqueIndex:idx_vote_user_post;not null" json:"user_id"`
	PostID      int       `gorm:"uniqueIndex:idx_vote_user_post;not null" json:"post_id"`
	IsAnonymous bool      `gorm:"default:false" json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VoteRequest struct {
	IsAnonymous bool `json:"is_anonymous"`
}

// VoteResult is returned by the vote toggle.
type VoteResult struct {
	Voted      bool `json:"voted"`
	VotesCount int  `json:"votes_count"`
}

// VoteState is the viewer's vote on a post as mirrored by the client.
type VoteState struct {
	HasVoted    bool `json:"has_voted"`
	VotesCount  int  `json:"votes_count"`
	IsAnonymous bool `json:"is_anonymous"`
}
