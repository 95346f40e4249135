// Package reconcile keeps a candidate page's vote and comment state
// responsive while mutations are in flight. Every mutation is applied locally
// first, then either synced to the server's answer or reverted.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/models"
)

var (
	ErrEmptyContent = errors.New("comment content is empty")
	ErrNoSession    = errors.New("sign in to continue")
	ErrDisposed     = errors.New("thread is disposed")
)

// Session is the signed-in viewer.
type Session struct {
	UserID int
	Name   string
}

// Backend performs the mutations. Every method returns the authoritative
// post-mutation values.
type Backend interface {
	ToggleVote(ctx context.Context, postID int, anonymous bool) (models.VoteResult, error)
	CreateComment(ctx context.Context, postID int, req models.CreateCommentRequest) (models.CommentResult, error)
	ToggleCommentLike(ctx context.Context, commentID int) (models.LikeResult, error)
}

// Notifier is told about every mutation that was rolled back.
type Notifier func(action string, err error)

var comments = Tree[models.CommentView]{
	ID:       func(c models.CommentView) int { return c.ID },
	Children: func(c models.CommentView) []models.CommentView { return c.Replies },
	WithChildren: func(c models.CommentView, kids []models.CommentView) models.CommentView {
		c.Replies = kids
		return c
	},
}

// Snapshot is a read-only view of a thread. Its slices must not be modified.
type Snapshot struct {
	PostID        int
	Vote          models.VoteState
	Comments      []models.CommentView
	CommentsCount int
}

type Thread struct {
	backend Backend
	notify  Notifier
	now     func() time.Time
	log     *slog.Logger

	mu          sync.Mutex
	session     *Session
	postID      int
	vote        models.VoteState
	comments    []models.CommentView
	count       int
	fingerprint uuid.UUID
	disposed    bool
	lastTemp    int
}

type Option func(*Thread)

func WithNotifier(n Notifier) Option {
	return func(t *Thread) { t.notify = n }
}

func WithClock(now func() time.Time) Option {
	return func(t *Thread) { t.now = now }
}

func NewThread(b Backend, opts ...Option) *Thread {
	t := &Thread{backend: b, now: time.Now, log: logger.L()}
	t.notify = func(action string, err error) {
		t.log.Warn("mutation_rolled_back", "action", action, "err", err)
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetSession sets the viewer; nil signs out.
func (t *Thread) SetSession(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s == nil {
		t.session = nil
		return
	}
	cp := *s
	t.session = &cp
}

// Load replaces the thread with detail. Results of mutations started before
// Load are ignored.
func (t *Thread) Load(detail models.PostDetail) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postID = detail.Post.ID
	t.vote = models.VoteState{
		HasVoted:    detail.UserHasVoted,
		VotesCount:  detail.VotesCount,
		IsAnonymous: detail.UserVoteIsAnonymous,
	}
	t.comments = detail.Comments
	t.count = detail.CommentsCount
	t.fingerprint = uuid.New()
	t.disposed = false
}

// Dispose stops the thread from accepting results.
func (t *Thread) Dispose() {
	t.mu.Lock()
	t.disposed = true
	t.mu.Unlock()
}

func (t *Thread) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{PostID: t.postID, Vote: t.vote, Comments: t.comments, CommentsCount: t.count}
}

// begin checks the preconditions shared by every mutation. Callers hold mu.
func (t *Thread) begin() (Session, uuid.UUID, error) {
	if t.disposed {
		return Session{}, uuid.Nil, ErrDisposed
	}
	if t.session == nil {
		return Session{}, uuid.Nil, ErrNoSession
	}
	return *t.session, t.fingerprint, nil
}

// current reports whether results for fp may still be applied. Callers hold mu.
func (t *Thread) current(fp uuid.UUID) bool {
	return !t.disposed && t.fingerprint == fp
}

// tempID hands out negative ids, which never collide with server ids.
func (t *Thread) tempID() int {
	t.lastTemp--
	return t.lastTemp
}

// ToggleVote flips the viewer's vote.
func (t *Thread) ToggleVote(ctx context.Context, anonymous bool) error {
	t.mu.Lock()
	_, fp, err := t.begin()
	if err != nil {
		t.mu.Unlock()
		return err
	}
	prev := t.vote
	next := prev
	next.HasVoted = !prev.HasVoted
	if next.HasVoted {
		next.VotesCount++
		next.IsAnonymous = anonymous
	} else {
		next.VotesCount--
		next.IsAnonymous = false
	}
	t.vote = next
	postID := t.postID
	t.mu.Unlock()

	res, err := t.backend.ToggleVote(ctx, postID, anonymous)

	t.mu.Lock()
	if !t.current(fp) {
		t.mu.Unlock()
		return nil
	}
	if err != nil {
		t.vote = prev
		t.mu.Unlock()
		t.notify("vote", err)
		return err
	}
	t.vote.HasVoted = res.Voted
	t.vote.VotesCount = res.VotesCount
	if !res.Voted {
		t.vote.IsAnonymous = false
	}
	t.mu.Unlock()
	return nil
}

// PostComment adds a top-level comment at the head of the list.
func (t *Thread) PostComment(ctx context.Context, content string, anonymous bool) (models.CommentView, error) {
	return t.create(ctx, nil, content, anonymous)
}

// Reply adds a reply under parentID. A reply to a comment already at
// models.MaxCommentDepth is attached to that comment's parent instead. Replying
// to a comment that is no longer present does nothing.
func (t *Thread) Reply(ctx context.Context, parentID int, content string, anonymous bool) (models.CommentView, error) {
	return t.create(ctx, &parentID, content, anonymous)
}

func (t *Thread) create(ctx context.Context, parentID *int, content string, anonymous bool) (models.CommentView, error) {
	body := strings.TrimSpace(content)
	if body == "" {
		return models.CommentView{}, ErrEmptyContent
	}

	t.mu.Lock()
	sess, fp, err := t.begin()
	if err != nil {
		t.mu.Unlock()
		return models.CommentView{}, err
	}

	var target *int
	if parentID != nil {
		parent, depth, ok := comments.Find(t.comments, *parentID)
		if !ok {
			t.mu.Unlock()
			return models.CommentView{}, nil
		}
		id := parent.ID
		// Find counts top-level nodes as 1.
		if depth-1 >= models.MaxCommentDepth && parent.ParentID != nil {
			id = *parent.ParentID
		}
		target = &id
	}

	name := sess.Name
	if anonymous {
		name = models.AnonymousName
	}
	temp := models.CommentView{
		ID:          t.tempID(),
		PostID:      t.postID,
		ParentID:    target,
		UserID:      sess.UserID,
		UserName:    name,
		Content:     body,
		IsAnonymous: anonymous,
		CreatedAt:   t.now(),
		Replies:     []models.CommentView{},
	}
	if target == nil {
		t.comments = append([]models.CommentView{temp}, t.comments...)
	} else {
		t.comments, _ = comments.AppendChild(t.comments, *target, temp)
	}
	t.count++
	postID := t.postID
	t.mu.Unlock()

	res, err := t.backend.CreateComment(ctx, postID, models.CreateCommentRequest{
		Content:     body,
		IsAnonymous: anonymous,
		ParentID:    target,
	})

	t.mu.Lock()
	if !t.current(fp) {
		t.mu.Unlock()
		return models.CommentView{}, nil
	}
	if err != nil {
		if next, ok := comments.Remove(t.comments, temp.ID); ok {
			t.comments = next
			t.count--
		}
		t.mu.Unlock()
		t.notify("comment", err)
		return models.CommentView{}, err
	}

	real := res.Comment
	if real.Replies == nil {
		real.Replies = []models.CommentView{}
	}
	if _, _, dup := comments.Find(t.comments, real.ID); dup {
		t.comments, _ = comments.Remove(t.comments, temp.ID)
	} else {
		t.comments, _ = comments.Update(t.comments, temp.ID, func(models.CommentView) models.CommentView { return real })
	}
	if res.CommentsCount > 0 {
		t.count = res.CommentsCount
	}
	t.mu.Unlock()
	return real, nil
}

// ToggleLike flips the viewer's like on a comment at any depth. Unknown ids
// are ignored.
func (t *Thread) ToggleLike(ctx context.Context, commentID int) error {
	t.mu.Lock()
	_, fp, err := t.begin()
	if err != nil {
		t.mu.Unlock()
		return err
	}
	node, _, ok := comments.Find(t.comments, commentID)
	if !ok {
		t.mu.Unlock()
		return nil
	}
	prevLiked, prevCount := node.UserHasLiked, node.LikesCount
	t.comments, _ = comments.Update(t.comments, commentID, func(c models.CommentView) models.CommentView {
		c.UserHasLiked = !c.UserHasLiked
		if c.UserHasLiked {
			c.LikesCount++
		} else {
			c.LikesCount--
		}
		return c
	})
	t.mu.Unlock()

	res, err := t.backend.ToggleCommentLike(ctx, commentID)

	t.mu.Lock()
	if !t.current(fp) {
		t.mu.Unlock()
		return nil
	}
	if err != nil {
		t.comments, _ = comments.Update(t.comments, commentID, func(c models.CommentView) models.CommentView {
			c.UserHasLiked = prevLiked
			c.LikesCount = prevCount
			return c
		})
		t.mu.Unlock()
		t.notify("like", err)
		return err
	}
	t.comments, _ = comments.Update(t.comments, commentID, func(c models.CommentView) models.CommentView {
		c.UserHasLiked = res.Liked
		c.LikesCount = res.LikesCount
		return c
	})
	t.mu.Unlock()
	return nil
}
