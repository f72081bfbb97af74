package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://host:8080", "http://host:8080/api"},
		{"http://host:8080/", "http://host:8080/api"},
		{"http://host:8080/api", "http://host:8080/api"},
		{"http://host:8080/api/", "http://host:8080/api"},
		{"", "http://localhost:8080/api"},
	}
	for _, tt := range tests {
		if got := NormalizeBase(tt.in); got != tt.want {
			t.Errorf("NormalizeBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIngredientsDecodesBOMAndStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ingredients" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Accept"), "application/json") {
			t.Errorf("accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte("\xEF\xBB\xBF"))
		w.Write([]byte(`[{"id":1,"name":"<b>계란</b>","category":"고기·계란·통조림"},{"id":2,"name":"Salt &amp; pepper"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Ingredients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "계란" || got[1].Name != "Salt & pepper" {
		t.Errorf("ingredients = %+v", got)
	}
}

func TestRecommendEmptySelectionMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Recommend(context.Background(), RecommendRequest{StrictOnly: true})
	if !errors.Is(err, ErrNoIngredients) {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times", calls.Load())
	}
}

func TestRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/recipes/recommend" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req RecommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(req.IngredientIDs) != 2 || !req.StrictOnly {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"youtubeRecommendations":[{"videoId":"abc","title":"계란말이"}],"recipeRecommendations":[{"id":7,"name":"김치찌개","ingredientNames":["김치","<i>돼지고기</i>"]}]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL+"/api/", time.Second).Recommend(context.Background(), RecommendRequest{IngredientIDs: []int64{1, 2}, StrictOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.YoutubeRecommendations) != 1 || got.YoutubeRecommendations[0].VideoID != "abc" {
		t.Errorf("videos = %+v", got.YoutubeRecommendations)
	}
	r := got.RecipeRecommendations[0]
	if r.ID != 7 || r.IngredientNames[1] != "돼지고기" {
		t.Errorf("recipe = %+v", r)
	}
}

func TestRecipeDetailAndSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/recipes/7/detail":
			w.Write([]byte(`{"name":"김치찌개","ingredientsWithAmount":["김치: 1컵"],"steps":["끓인다",""]}`))
		case "/api/youtube/a b/recipe-steps":
			if r.URL.Query().Get("title") != "계란말이" {
				t.Errorf("title = %q", r.URL.Query().Get("title"))
			}
			w.Write([]byte(`{"title":"계란말이","steps":["풀기","말기"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	d, err := c.RecipeDetail(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "김치찌개" || len(d.Steps) != 1 || d.IngredientsWithAmount[0] != "김치: 1컵" {
		t.Errorf("detail = %+v", d)
	}

	s, err := c.YoutubeRecipeSteps(context.Background(), "a b", "계란말이")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) != 2 {
		t.Errorf("steps = %+v", s)
	}
}

func TestStatusErrorCarriesURLAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).YoutubeQuota(context.Background())
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T %v", err, err)
	}
	if re.Kind != KindStatus || re.Status != 503 || !re.Retryable() {
		t.Errorf("request error = %+v", re)
	}
	msg := err.Error()
	if !strings.Contains(msg, srv.URL+"/api/youtube-quota") || !strings.Contains(msg, "503") {
		t.Errorf("message = %q", msg)
	}
}

func TestDecodeErrorCarriesPreview(t *testing.T) {
	body := "<html>" + strings.Repeat("가", 200) + "</html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Ingredients(context.Background())
	var re *RequestError
	if !errors.As(err, &re) || re.Kind != KindDecode {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(re.Preview, "<html>가") || !strings.HasSuffix(re.Preview, "...") {
		t.Errorf("preview = %q", re.Preview)
	}
	if re.Retryable() {
		t.Error("decode errors are not retryable")
	}
}

func TestConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, time.Second).Ingredients(context.Background())
	var re *RequestError
	if !errors.As(err, &re) || re.Kind != KindConnect {
		t.Fatalf("err = %v", err)
	}
	if !IsRetryable(err) || !strings.Contains(err.Error(), base) {
		t.Errorf("err = %v", err)
	}
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	got := decodeUTF8([]byte("a\xffb"))
	if string(got) != "a\uFFFDb" {
		t.Errorf("decodeUTF8 = %q", got)
	}
}

func TestQuotaRemaining(t *testing.T) {
	if r := (YoutubeQuota{Limit: 10000, UsedToday: 300}).Remaining(); r != 9700 {
		t.Errorf("remaining = %d", r)
	}
	if r := (YoutubeQuota{Limit: 100, UsedToday: 300}).Remaining(); r != 0 {
		t.Errorf("remaining = %d", r)
	}
}
