package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/metrics"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/models"
)

type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// buildCommentTree nests comments (given oldest first). Top-level comments
// come out newest first and replies oldest first.
func buildCommentTree(comments []models.Comment, liked map[int]bool) []models.CommentView {
	children := map[int][]models.Comment{}
	var roots []models.Comment
	for _, cm := range comments {
		if cm.ParentID == nil {
			roots = append(roots, cm)
			continue
		}
		children[*cm.ParentID] = append(children[*cm.ParentID], cm)
	}

	var build func(cm models.Comment) models.CommentView
	build = func(cm models.Comment) models.CommentView {
		v := models.NewCommentView(cm, liked[cm.ID])
		for _, kid := range children[cm.ID] {
			v.Replies = append(v.Replies, build(kid))
		}
		return v
	}

	out := make([]models.CommentView, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		out = append(out, build(roots[i]))
	}
	return out
}

func loadCommentTree(db *gorm.DB, postID, viewer int) ([]models.CommentView, error) {
	var comments []models.Comment
	if err := db.Preload("User").Where("post_id = ?", postID).Order("created_at asc, id asc").Find(&comments).Error; err != nil {
		return nil, err
	}
	liked := map[int]bool{}
	if viewer != 0 && len(comments) > 0 {
		var ids []int
		err := db.Model(&models.CommentLike{}).
			Joins("JOIN comments ON comments.id = comment_likes.comment_id").
			Where("comments.post_id = ? AND comment_likes.user_id = ?", postID, viewer).
			Pluck("comment_likes.comment_id", &ids).Error
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			liked[id] = true
		}
	}
	return buildCommentTree(comments, liked), nil
}

// replyTarget returns the parent a reply should attach to. Replies under a
// comment already at the maximum depth go to that comment's parent.
func replyTarget(tx *gorm.DB, postID, parentID int) (*int, error) {
	var parent models.Comment
	if err := tx.Select("id", "post_id", "parent_id").First(&parent, parentID).Error; err != nil {
		return nil, dbError(err, "Parent comment")
	}
	if parent.PostID != postID {
		return nil, apperr.NewInvalidInput("Parent comment belongs to another post")
	}

	depth := 0
	for cur := parent.ParentID; cur != nil; depth++ {
		var up models.Comment
		if err := tx.Select("id", "parent_id").First(&up, *cur).Error; err != nil {
			return nil, dbError(err, "Comment")
		}
		cur = up.ParentID
	}
	return replyParent(parent, depth), nil
}

// replyParent picks the attachment point for a reply to parent, which sits
// at depth (top-level is 0).
func replyParent(parent models.Comment, depth int) *int {
	if depth >= models.MaxCommentDepth && parent.ParentID != nil {
		return parent.ParentID
	}
	id := parent.ID
	return &id
}

// GetComments returns the comment tree of a post.
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	viewer, _ := middleware.UserID(c)
	tree, err := loadCommentTree(h.db.WithContext(c.Request.Context()), postID, viewer)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to fetch comments", err))
		return
	}
	c.JSON(http.StatusOK, tree)
}

// CreateComment adds a comment or reply and returns it with the post's new
// comment count.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	postID, err := paramID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		apperr.Respond(c, apperr.NewInvalidInput("Content is required"))
		return
	}

	var res models.CommentResult
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return dbError(err, "Post")
		}

		comment := models.Comment{
			PostID:      postID,
			UserID:      userID,
			Content:     content,
			IsAnonymous: input.IsAnonymous,
		}
		if input.ParentID != nil {
			target, err := replyTarget(tx, postID, *input.ParentID)
			if err != nil {
				return err
			}
			comment.ParentID = target
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Preload("User").First(&comment, comment.ID).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		res = models.CommentResult{Comment: models.NewCommentView(comment, false), CommentsCount: int(n)}
		return nil
	})
	if err != nil {
		respondTx(c, err, "Failed to create comment")
		return
	}
	metrics.MutationsTotal.WithLabelValues("comment").Inc()
	c.JSON(http.StatusCreated, res)
}

func (h *CommentHandler) ownedComment(c *gin.Context) (*models.Comment, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	commentID, err := paramID(c, "commentId")
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	if err := h.db.WithContext(c.Request.Context()).Preload("User").First(&comment, commentID).Error; err != nil {
		return nil, dbError(err, "Comment")
	}
	if comment.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "You can only change your own comments", nil)
	}
	return &comment, nil
}

// UpdateComment edits a comment's content (owner only).
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	comment, err := h.ownedComment(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Content) == "" {
		apperr.Respond(c, apperr.NewInvalidInput("Content is required"))
		return
	}
	comment.Content = strings.TrimSpace(input.Content)
	if err := h.db.WithContext(c.Request.Context()).Model(comment).Update("content", comment.Content).Error; err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to update comment", err))
		return
	}
	c.JSON(http.StatusOK, models.NewCommentView(*comment, false))
}

// DeleteComment deletes a comment, its replies and their likes (owner only).
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	comment, err := h.ownedComment(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		ids := []int{comment.ID}
		for frontier := ids; len(frontier) > 0; {
			var next []int
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
				return err
			}
			ids = append(ids, next...)
			frontier = next
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to delete comment", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// LikeComment toggles the caller's like and returns the new count.
func (h *CommentHandler) LikeComment(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	commentID, err := paramID(c, "commentId")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var res models.LikeResult
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id").First(&comment, commentID).Error; err != nil {
			return dbError(err, "Comment")
		}

		var existing models.CommentLike
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		delta := 1
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			delta = -1
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
				return err
			}
			res.Liked = true
		default:
			return err
		}

		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			Update("likes_count", gorm.Expr("GREATEST(likes_count + ?, 0)", delta)).Error; err != nil {
			return err
		}
		if err := tx.Select("likes_count").First(&comment, commentID).Error; err != nil {
			return err
		}
		res.LikesCount = comment.LikesCount
		return nil
	})
	if err != nil {
		respondTx(c, err, "Failed to like comment")
		return
	}
	metrics.MutationsTotal.WithLabelValues("like").Inc()
	c.JSON(http.StatusOK, res)
}

// respondTx passes API errors through and wraps anything else.
func respondTx(c *gin.Context, err error, message string) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		err = apperr.New(apperr.Database, message, err)
	}
	apperr.Respond(c, err)
}
