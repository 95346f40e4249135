package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/apperr"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/metrics"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/models"
)

type PostHandler struct {
	db  *gorm.DB
	dir location.Directory
}

func NewPostHandler(db *gorm.DB, dir location.Directory) *PostHandler {
	return &PostHandler{db: db, dir: dir}
}

const summaryColumns = `posts.*,
	(SELECT COUNT(*) FROM votes WHERE votes.post_id = posts.id) AS votes_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count`

func (h *PostHandler) list(c *gin.Context, f models.PostFilter) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{}).Select(summaryColumns)
	if f.RegionID != 0 {
		q = q.Where("posts.region_id = ?", f.RegionID)
	}
	if f.CityID != 0 {
		q = q.Where("posts.city_id = ?", f.CityID)
	}
	if f.DistrictID != 0 {
		q = q.Where("posts.district_id = ?", f.DistrictID)
	}
	if f.BarangayID != 0 {
		q = q.Where("posts.barangay_id = ?", f.BarangayID)
	}
	if f.Level != "" {
		q = q.Where("posts.level = ?", f.Level)
	}
	if f.Status != "" {
		q = q.Where("posts.status = ?", f.Status)
	}

	var posts []models.PostSummary
	if err := q.Order("posts.created_at desc").Find(&posts).Error; err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to fetch posts", err))
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(posts))
}

// GetPosts lists posts matching the query filters.
func (h *PostHandler) GetPosts(c *gin.Context) {
	var f models.PostFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	h.list(c, f)
}

// GetApprovedPosts is the browse listing: approved posts only.
func (h *PostHandler) GetApprovedPosts(c *gin.Context) {
	var f models.PostFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	f.Status = models.StatusApproved
	h.list(c, f)
}

// GetPost returns the candidate page: counters, the viewer's vote and the
// comment tree.
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := paramID(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var detail models.PostDetail
	if err := db.First(&detail.Post, postID).Error; err != nil {
		apperr.Respond(c, dbError(err, "Post"))
		return
	}

	detail.VotesCount, detail.CommentsCount, err = postCounts(db, postID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	viewer, _ := middleware.UserID(c)
	if viewer != 0 {
		var v models.Vote
		if err := db.Where("user_id = ? AND post_id = ?", viewer, postID).First(&v).Error; err == nil {
			detail.UserHasVoted = true
			detail.UserVoteIsAnonymous = v.IsAnonymous
		}
	}

	tree, err := loadCommentTree(db, postID, viewer)
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to fetch comments", err))
		return
	}
	detail.Comments = tree

	c.JSON(http.StatusOK, detail)
}

func postCounts(db *gorm.DB, postID int) (votes, comments int, err error) {
	var v, c int64
	if err := db.Model(&models.Vote{}).Where("post_id = ?", postID).Count(&v).Error; err != nil {
		return 0, 0, apperr.New(apperr.Database, "Failed to count votes", err)
	}
	if err := db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&c).Error; err != nil {
		return 0, 0, apperr.New(apperr.Database, "Failed to count comments", err)
	}
	return int(v), int(c), nil
}

func (h *PostHandler) validateLocation(c *gin.Context, sel models.LocationSelection) error {
	if sel.RegionID == 0 || sel.CityID == 0 {
		return apperr.NewInvalidInput("region and city are required")
	}
	if err := location.Validate(c.Request.Context(), h.dir, sel); err != nil {
		return locationError(err)
	}
	return nil
}

func applyPostRequest(p *models.Post, in models.CreatePostRequest) {
	p.Name = in.Name
	p.Level = in.Level
	p.Position = in.Position
	p.Party = in.Party
	p.Bio = in.Bio
	p.Platform = in.Platform
	p.Education = in.Education
	p.Achievements = in.Achievements
	p.Images = in.Images
	p.ProfilePhoto = in.ProfilePhoto
	p.RegionID = in.Location.RegionID
	p.CityID = in.Location.CityID
	p.DistrictID = optional(in.Location.DistrictID)
	p.BarangayID = optional(in.Location.BarangayID)
}

func optional(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// CreatePost creates a candidate profile pending review.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	if err := h.validateLocation(c, input.Location); err != nil {
		apperr.Respond(c, err)
		return
	}

	post := models.Post{UserID: userID, Status: models.StatusPending}
	applyPostRequest(&post, input)
	if err := h.db.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to create post", err))
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) ownedPost(c *gin.Context) (*models.Post, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	postID, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := h.db.WithContext(c.Request.Context()).First(&post, postID).Error; err != nil {
		return nil, dbError(err, "Post")
	}
	if post.UserID != userID {
		return nil, apperr.New(apperr.Forbidden, "You can only change your own posts", nil)
	}
	return &post, nil
}

// UpdatePost replaces a post's profile. Edits send it back to review.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	post, err := h.ownedPost(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
		return
	}
	if err := h.validateLocation(c, input.Location); err != nil {
		apperr.Respond(c, err)
		return
	}

	applyPostRequest(post, input)
	post.Status = models.StatusPending
	if err := h.db.WithContext(c.Request.Context()).Save(post).Error; err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to update post", err))
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes a post with its votes, comments and likes.
func (h *PostHandler) DeletePost(c *gin.Context) {
	post, err := h.ownedPost(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", post.ID)
		if err := tx.Where("comment_id IN (?)", sub).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.Database, "Failed to delete post", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost toggles the caller's vote and returns the new count.
func (h *PostHandler) VotePost(c *gin.Context) {
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
	var input models.VoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.NewInvalidInput(err.Error()))
			return
		}
	}

	var res models.VoteResult
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return dbError(err, "Post")
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PostID: postID, IsAnonymous: input.IsAnonymous}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			res.Voted = true
		default:
			return err
		}

		var n int64
		if err := tx.Model(&models.Vote{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		res.VotesCount = int(n)
		return nil
	})
	if err != nil {
		respondTx(c, err, "Failed to vote")
		return
	}
	metrics.MutationsTotal.WithLabelValues("vote").Inc()
	c.JSON(http.StatusOK, res)
}
