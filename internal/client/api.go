package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/models"
)

func itoa(n int) string { return strconv.Itoa(n) }

func (c *Client) Regions(ctx context.Context) ([]models.Region, error) {
	var out []models.Region
	err := c.do(ctx, http.MethodGet, "/api/locations/regions", nil, nil, &out)
	return out, err
}

func (c *Client) Cities(ctx context.Context, regionID int) ([]models.City, error) {
	var out []models.City
	q := url.Values{"region_id": {itoa(regionID)}}
	err := c.do(ctx, http.MethodGet, "/api/locations/cities", q, nil, &out)
	return out, err
}

func (c *Client) Districts(ctx context.Context, cityID int) ([]models.District, error) {
	var out []models.District
	q := url.Values{"city_id": {itoa(cityID)}}
	err := c.do(ctx, http.MethodGet, "/api/locations/districts", q, nil, &out)
	return out, err
}

func (c *Client) Barangays(ctx context.Context, cityID, districtID int) ([]models.Barangay, error) {
	var out []models.Barangay
	q := url.Values{"city_id": {itoa(cityID)}}
	if districtID != 0 {
		q.Set("district_id", itoa(districtID))
	}
	err := c.do(ctx, http.MethodGet, "/api/locations/barangays", q, nil, &out)
	return out, err
}

// Detect asks the API to reverse-geocode a coordinate. Only the hints are
// returned; the caller resolves them against its own directory.
func (c *Client) Detect(ctx context.Context, lat, lon float64) (location.Hints, error) {
	var out struct {
		Hints location.Hints `json:"hints"`
	}
	body := map[string]float64{"latitude": lat, "longitude": lon}
	err := c.do(ctx, http.MethodPost, "/api/locations/detect", nil, body, &out)
	return out.Hints, err
}

func (c *Client) ListPosts(ctx context.Context, f models.PostFilter) ([]models.PostSummary, error) {
	q := url.Values{}
	for k, v := range map[string]int{
		"region_id":   f.RegionID,
		"city_id":     f.CityID,
		"district_id": f.DistrictID,
		"barangay_id": f.BarangayID,
	} {
		if v != 0 {
			q.Set(k, itoa(v))
		}
	}
	if f.Level != "" {
		q.Set("level", f.Level)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	var out []models.PostSummary
	err := c.do(ctx, http.MethodGet, "/api/posts", q, nil, &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, id int) (models.PostDetail, error) {
	var out models.PostDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, nil, &out)
	return out, err
}

func (c *Client) ToggleVote(ctx context.Context, postID int, anonymous bool) (models.VoteResult, error) {
	var out models.VoteResult
	path := fmt.Sprintf("/api/posts/%d/vote", postID)
	err := c.do(ctx, http.MethodPost, path, nil, models.VoteRequest{IsAnonymous: anonymous}, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, postID int, req models.CreateCommentRequest) (models.CommentResult, error) {
	var out models.CommentResult
	path := fmt.Sprintf("/api/posts/%d/comments", postID)
	err := c.do(ctx, http.MethodPost, path, nil, req, &out)
	return out, err
}

func (c *Client) ToggleCommentLike(ctx context.Context, commentID int) (models.LikeResult, error) {
	var out models.LikeResult
	path := fmt.Sprintf("/api/comments/%d/like", commentID)
	err := c.do(ctx, http.MethodPost, path, nil, nil, &out)
	return out, err
}
