// Package recipes is the client for the fridge recipe recommendation
// backend, plus the ingredient selection helpers and quota polling the
// fridge page is built on.
package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	appLog "fridgecal/internal/log"
)

const (
	// DefaultTimeout bounds every call independently of server timeouts.
	DefaultTimeout = 15 * time.Second
	// DefaultBase is used when no base URL is configured.
	DefaultBase = "http://localhost:8080"

	previewRunes = 120
	maxBody      = 4 << 20
)

// Client talks to the backend under a normalized base ending in /api.
type Client struct {
	base   string
	client *http.Client
	strip  *bluemonday.Policy
}

// NormalizeBase trims a trailing slash and appends /api unless present.
func NormalizeBase(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultBase
	}
	raw = strings.TrimRight(raw, "/")
	if strings.HasSuffix(raw, "/api") {
		return raw
	}
	return raw + "/api"
}

// NewClient creates a client. timeout <= 0 selects DefaultTimeout.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   NormalizeBase(base),
		client: &http.Client{Timeout: timeout},
		strip:  bluemonday.StrictPolicy(),
	}
}

func (c *Client) Base() string { return c.base }

func (c *Client) Ingredients(ctx context.Context) ([]Ingredient, error) {
	var out []Ingredient
	if err := c.do(ctx, http.MethodGet, "/ingredients", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Ingredient{}
	}
	for i := range out {
		out[i].Name = c.clean(out[i].Name)
		out[i].Category = c.clean(out[i].Category)
	}
	return out, nil
}

// Recommend asks for recipes and videos. An empty selection fails with
// ErrNoIngredients without contacting the backend.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (RecommendResponse, error) {
	if len(req.IngredientIDs) == 0 && len(req.IngredientNames) == 0 {
		return RecommendResponse{}, ErrNoIngredients
	}
	var out RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/recipes/recommend", req, &out); err != nil {
		return RecommendResponse{}, err
	}
	if out.YoutubeRecommendations == nil {
		out.YoutubeRecommendations = []YoutubeRecommendation{}
	}
	if out.RecipeRecommendations == nil {
		out.RecipeRecommendations = []Recipe{}
	}
	for i := range out.YoutubeRecommendations {
		out.YoutubeRecommendations[i].Title = c.clean(out.YoutubeRecommendations[i].Title)
	}
	for i := range out.RecipeRecommendations {
		r := &out.RecipeRecommendations[i]
		r.Name = c.clean(r.Name)
		r.Description = c.clean(r.Description)
		r.IngredientNames = c.cleanAll(r.IngredientNames)
	}
	out.YoutubeErrorReason = c.clean(out.YoutubeErrorReason)
	return out, nil
}

func (c *Client) RecipeDetail(ctx context.Context, id int64) (RecipeDetail, error) {
	var out RecipeDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/recipes/%d/detail", id), nil, &out); err != nil {
		return RecipeDetail{}, err
	}
	out.Name = c.clean(out.Name)
	out.Description = c.clean(out.Description)
	out.IngredientsWithAmount = c.cleanAll(out.IngredientsWithAmount)
	out.Steps = c.cleanAll(out.Steps)
	out.YoutubeTitle = c.clean(out.YoutubeTitle)
	return out, nil
}

// YoutubeRecipeSteps fetches steps extracted from a video. title is an
// optional hint sent as a query parameter.
func (c *Client) YoutubeRecipeSteps(ctx context.Context, videoID, title string) (YoutubeRecipeSteps, error) {
	p := "/youtube/" + url.PathEscape(videoID) + "/recipe-steps"
	if title != "" {
		p += "?" + url.Values{"title": {title}}.Encode()
	}
	var out YoutubeRecipeSteps
	if err := c.do(ctx, http.MethodGet, p, nil, &out); err != nil {
		return YoutubeRecipeSteps{}, err
	}
	out.Title = c.clean(out.Title)
	out.Steps = c.cleanAll(out.Steps)
	return out, nil
}

func (c *Client) YoutubeQuota(ctx context.Context) (YoutubeQuota, error) {
	var out YoutubeQuota
	if err := c.do(ctx, http.MethodGet, "/youtube-quota", nil, &out); err != nil {
		return YoutubeQuota{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	u := c.base + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("recipes: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &RequestError{Kind: KindConnect, Method: method, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json;charset=UTF-8")
	if in != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		appLog.Warn("recipes request failed", "method", method, "url", u, "err", err)
		return &RequestError{Kind: KindConnect, Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &RequestError{Kind: KindConnect, Method: method, URL: u, Status: resp.StatusCode, Err: err}
	}
	text := decodeUTF8(raw)

	appLog.Debug("recipes response",
		"method", method,
		"url", u,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Kind:    KindStatus,
			Method:  method,
			URL:     u,
			Status:  resp.StatusCode,
			Preview: preview(text),
		}
	}
	if err := json.Unmarshal(text, out); err != nil {
		return &RequestError{
			Kind:    KindDecode,
			Method:  method,
			URL:     u,
			Status:  resp.StatusCode,
			Preview: preview(text),
			Err:     err,
		}
	}
	return nil
}

// decodeUTF8 drops a leading BOM and replaces invalid sequences.
func decodeUTF8(b []byte) []byte {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return bytes.ToValidUTF8(b, []byte("\uFFFD"))
	}
	return out
}

func preview(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes]) + "..."
}

// clean strips markup from backend text.
func (c *Client) clean(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(c.strip.Sanitize(s)))
}

func (c *Client) cleanAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = c.clean(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
