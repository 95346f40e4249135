//go:build integration

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"

	"github.com/votehubph/backend/internal/client"
	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/database"
	"github.com/votehubph/backend/internal/handlers"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/models"
	"github.com/votehubph/backend/internal/otp"
	"github.com/votehubph/backend/internal/reconcile"
)

type capturedCodes struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *capturedCodes) Send(_ context.Context, to, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[to] = code
	return nil
}

func (c *capturedCodes) last(to string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[to]
}

type stack struct {
	url   string
	codes *capturedCodes
	dir   *database.Directory
}

func startStack(t *testing.T) stack {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("votehub"),
		tcpostgres.WithUsername("votehub"),
		tcpostgres.WithPassword("votehub"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(postgres.Open(dsn), "votehub", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seed, err := database.DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, database.Seed(ctx, db.GetDB(), seed, 50, nil))

	codes := &capturedCodes{codes: map[string]string{}}
	store := otp.NewMemoryStore(time.Minute)
	t.Cleanup(store.Close)

	dir := database.NewDirectory(db.GetDB())
	tokens := middleware.NewTokens("integration-secret", time.Hour)
	h := handlers.NewHandler(handlers.Deps{
		DB:        db.GetDB(),
		Directory: dir,
		OTP:       otp.NewIssuer(store, codes, 5*time.Minute),
		Tokens:    tokens,
	})
	cfg := &config.Config{AllowOrigins: []string{"*"}}
	ts := httptest.NewServer(New(cfg, db, h, tokens).RegisterRoutes())
	t.Cleanup(ts.Close)

	return stack{url: ts.URL, codes: codes, dir: dir}
}

func call(t *testing.T, s stack, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.url+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func register(t *testing.T, s stack, email, name string) models.AuthResponse {
	t.Helper()
	status, body := call(t, s, http.MethodPost, "/api/auth/send-otp", "", models.SendOTPRequest{Email: email})
	require.Equal(t, http.StatusOK, status, string(body))

	code := s.codes.last(email)
	require.Len(t, code, 6)

	status, body = call(t, s, http.MethodPost, "/api/auth/verify-otp", "", models.VerifyOTPRequest{
		Email: email, OTP: code, Password: "secret123", Name: name,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	require.NotEmpty(t, auth.Token)
	return auth
}

func TestIntegrationAccountFlow(t *testing.T) {
	s := startStack(t)
	auth := register(t, s, "juan@example.com", "Juan")
	assert.Equal(t, "Juan", auth.User.Name)

	status, _ := call(t, s, http.MethodPost, "/api/auth/send-otp", "", models.SendOTPRequest{Email: "juan@example.com"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, s, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "juan@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, s, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "juan@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = call(t, s, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, s, http.MethodPut, "/api/me/location", auth.Token, models.LocationSelection{RegionID: 1, CityID: 81})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, s, http.MethodPut, "/api/me/location", auth.Token, models.LocationSelection{RegionID: 14, CityID: 81, DistrictID: 2, BarangayID: 65})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = call(t, s, http.MethodGet, "/api/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.True(t, me.ProfileCompleted)
	require.NotNil(t, me.DistrictID)
	assert.Equal(t, 2, *me.DistrictID)
}

func TestIntegrationLocations(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	brgys, err := s.dir.Barangays(ctx, 81, 2)
	require.NoError(t, err)
	var names []string
	for _, b := range brgys {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, "Matina")

	c := client.New(s.url)
	regions, err := c.Regions(ctx)
	require.NoError(t, err)
	assert.Len(t, regions, 17)

	status, body := call(t, s, http.MethodGet, "/api/locations/resolve?region=Davao+Region&city=Davao+City&barangay=Talomo+District", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var got struct {
		Selection models.LocationSelection `json:"selection"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.LocationSelection{RegionID: 14, CityID: 81, DistrictID: 2}, got.Selection)

	status, body = call(t, s, http.MethodGet, "/api/locations/resolve?region=Metro+Manila&city=Quezon+City&barangay=Commonwealth", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.LocationSelection{RegionID: 1, CityID: 2, BarangayID: 15}, got.Selection)
}

// shape flattens a comment tree to "id:parent:likes:liked" lines in display
// order, ignoring timestamps.
func shape(nodes []models.CommentView) []string {
	var out []string
	var walk func([]models.CommentView)
	walk = func(ns []models.CommentView) {
		for _, n := range ns {
			parent := 0
			if n.ParentID != nil {
				parent = *n.ParentID
			}
			out = append(out, strconv.Itoa(n.ID)+":"+strconv.Itoa(parent)+":"+
				strconv.Itoa(n.LikesCount)+":"+strconv.FormatBool(n.UserHasLiked))
			walk(n.Replies)
		}
	}
	walk(nodes)
	return out
}

func TestIntegrationCandidateThread(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()
	auth := register(t, s, "maria@example.com", "Maria")

	status, _ := call(t, s, http.MethodPost, "/api/posts", auth.Token, models.CreatePostRequest{
		Name: "Ana Cruz", Level: "local", Position: "Mayor",
		Location: models.LocationSelection{RegionID: 1, CityID: 81},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := call(t, s, http.MethodPost, "/api/posts", auth.Token, models.CreatePostRequest{
		Name: "Ana Cruz", Level: "local", Position: "Mayor", Achievements: []string{"Clean streets"},
		Location: models.LocationSelection{RegionID: 1, CityID: 2, BarangayID: 15},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var post models.Post
	require.NoError(t, json.Unmarshal(body, &post))
	assert.Equal(t, models.StatusPending, post.Status)

	c := client.New(s.url)
	c.SetAuth(auth.Token, auth.User.ID)

	listed, err := c.ListPosts(ctx, models.PostFilter{CityID: 2})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	detail, err := c.GetPost(ctx, post.ID)
	require.NoError(t, err)

	th := reconcile.NewThread(c)
	th.SetSession(&reconcile.Session{UserID: auth.User.ID, Name: auth.User.Name})
	th.Load(detail)

	require.NoError(t, th.ToggleVote(ctx, true))
	snap := th.Snapshot()
	assert.True(t, snap.Vote.HasVoted)
	assert.Equal(t, 1, snap.Vote.VotesCount)

	top, err := th.PostComment(ctx, "Good track record", false)
	require.NoError(t, err)
	require.Positive(t, top.ID)
	second, err := th.Reply(ctx, top.ID, "Agreed", false)
	require.NoError(t, err)
	third, err := th.Reply(ctx, second.ID, "Same here", true)
	require.NoError(t, err)
	fourth, err := th.Reply(ctx, third.ID, "Deepest", false)
	require.NoError(t, err)
	require.NotNil(t, fourth.ParentID)
	assert.Equal(t, third.ID, *fourth.ParentID)
	fifth, err := th.Reply(ctx, fourth.ID, "Too deep", false)
	require.NoError(t, err)
	require.NotNil(t, fifth.ParentID)
	assert.Equal(t, third.ID, *fifth.ParentID)

	require.NoError(t, th.ToggleLike(ctx, third.ID))

	snap = th.Snapshot()
	assert.Equal(t, 5, snap.CommentsCount)

	fresh, err := c.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.VotesCount)
	assert.True(t, fresh.UserHasVoted)
	assert.True(t, fresh.UserVoteIsAnonymous)
	assert.Equal(t, 5, fresh.CommentsCount)
	assert.Equal(t, shape(snap.Comments), shape(fresh.Comments))

	anon, err := client.New(s.url).GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, anon.UserHasVoted)
	assert.Equal(t, models.AnonymousName, anon.Comments[0].Replies[0].Replies[0].UserName)

	other := register(t, s, "pedro@example.com", "Pedro")
	status, _ = call(t, s, http.MethodDelete, "/api/posts/"+strconv.Itoa(post.ID), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, s, http.MethodDelete, "/api/posts/"+strconv.Itoa(post.ID), auth.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	_, err = c.GetPost(ctx, post.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}
