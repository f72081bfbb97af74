package recipes

// Ingredient is one selectable fridge ingredient.
type Ingredient struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// RecommendRequest selects ingredients by id and/or name. StrictOnly asks
// for recipes using only the selected ingredients.
type RecommendRequest struct {
	IngredientIDs   []int64  `json:"ingredientIds,omitempty"`
	IngredientNames []string `json:"ingredientNames,omitempty"`
	StrictOnly      bool     `json:"strictOnly,omitempty"`
}

type YoutubeRecommendation struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
}

type Recipe struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	MainCategory    string   `json:"mainCategory,omitempty"`
	SubCategory     string   `json:"subCategory,omitempty"`
	IngredientNames []string `json:"ingredientNames,omitempty"`
	YoutubeVideoID  string   `json:"youtubeVideoId,omitempty"`
}

type RecommendResponse struct {
	YoutubeRecommendations []YoutubeRecommendation `json:"youtubeRecommendations"`
	RecipeRecommendations  []Recipe                `json:"recipeRecommendations"`
	// YoutubeErrorReason explains an empty video list (quota, API off).
	YoutubeErrorReason string `json:"youtubeErrorReason,omitempty"`
}

type RecipeDetail struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	MainCategory string `json:"mainCategory,omitempty"`
	SubCategory  string `json:"subCategory,omitempty"`
	// IngredientsWithAmount entries look like "name: amount" when an amount
	// is known.
	IngredientsWithAmount []string `json:"ingredientsWithAmount"`
	Steps                 []string `json:"steps"`
	YoutubeVideoID        string   `json:"youtubeVideoId,omitempty"`
	YoutubeTitle          string   `json:"youtubeTitle,omitempty"`
}

type YoutubeRecipeSteps struct {
	VideoID string   `json:"videoId,omitempty"`
	Title   string   `json:"title"`
	Steps   []string `json:"steps"`
}

// YoutubeQuota is the backend's estimate of today's YouTube API usage.
type YoutubeQuota struct {
	Limit     int `json:"limit"`
	UsedToday int `json:"usedToday"`
}

func (q YoutubeQuota) Remaining() int {
	if r := q.Limit - q.UsedToday; r > 0 {
		return r
	}
	return 0
}
