package models

import "time"

const AnonymousName = "Anonymous"

// MaxCommentDepth is the deepest reply level. Top-level comments are depth 0;
// a comment at MaxCommentDepth takes no replies of its own.
const MaxCommentDepth = 3

type Comment struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	PostID      int       `gorm:"index;not null" json:"post_id"`
	ParentID    *int      `gorm:"index" json:"parent_id,omitempty"`
	UserID      int       `gorm:"not null" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Content     string    `gorm:"not null" json:"content"`
	IsAnonymous bool      `gorm:"default:false" json:"is_anonymous"`
	LikesCount  int       `gorm:"default:0" json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommentLike records one user's like on one comment.
type CommentLike struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CommentID int       `gorm:"uniqueIndex:idx_like_comment_user;not null" json:"comment_id"`
	UserID    int       `gorm:"uniqueIndex:idx_like_comment_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is a comment as the candidate page sees it: viewer-specific
// like state and nested replies.
type CommentView struct {
	ID           int           `json:"id"`
	PostID       int           `json:"post_id"`
	ParentID     *int          `json:"parent_id,omitempty"`
	UserID       int           `json:"user_id"`
	UserName     string        `json:"user_name"`
	Content      string        `json:"content"`
	IsAnonymous  bool          `json:"is_anonymous"`
	LikesCount   int           `json:"likes_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UserHasLiked bool          `json:"user_has_liked"`
	Replies      []CommentView `json:"replies"`
}

// NewCommentView renders c for a viewer. Anonymous authors are masked.
func NewCommentView(c Comment, liked bool) CommentView {
	name := c.User.Name
	if c.IsAnonymous {
		name = AnonymousName
	}
	return CommentView{
		ID:           c.ID,
		PostID:       c.PostID,
		ParentID:     c.ParentID,
		UserID:       c.UserID,
		UserName:     name,
		Content:      c.Content,
		IsAnonymous:  c.IsAnonymous,
		LikesCount:   c.LikesCount,
		CreatedAt:    c.CreatedAt,
		UserHasLiked: liked,
		Replies:      []CommentView{},
	}
}

type CreateCommentRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
	ParentID    *int   `json:"parent_id,omitempty"`
}

// CommentResult is returned by comment creation.
type CommentResult struct {
	Comment       CommentView `json:"comment"`
	CommentsCount int         `json:"comments_count"`
}

// LikeResult is returned by the like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}
