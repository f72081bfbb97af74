package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"fridgecal/internal/recipes"
)

var (
	recipesGrouped bool
	recipesIDs     []int64
	recipesNames   []string
	recipesStrict  bool
	recipesTitle   string
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Query the recipe recommendation backend",
	Long: `Query the recipe backend configured under api.base_url.
Output is JSON.`,
}

var recipesIngredientsCmd = &cobra.Command{
	Use:   "ingredients",
	Short: "List selectable ingredients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ings, err := newRecipesClient().Ingredients(cmd.Context())
		if err != nil {
			return err
		}
		if recipesGrouped {
			return printJSON(cmd.OutOrStdout(), recipes.GroupByCategory(ings))
		}
		return printJSON(cmd.OutOrStdout(), ings)
	},
}

var recipesRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend recipes for the given ingredients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var sel recipes.Selection
		for _, id := range recipesIDs {
			if !sel.Has(id) && !sel.Toggle(id) {
				return fmt.Errorf("at most %d ingredients", recipes.MaxIngredients)
			}
		}
		req := recipes.RecommendRequest{
			IngredientIDs:   sel.IDs(),
			IngredientNames: recipesNames,
			StrictOnly:      recipesStrict,
		}
		if len(req.IngredientNames) > recipes.MaxIngredients {
			return fmt.Errorf("at most %d ingredients", recipes.MaxIngredients)
		}
		resp, err := newRecipesClient().Recommend(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var recipesDetailCmd = &cobra.Command{
	Use:   "detail <recipe-id>",
	Short: "Show ingredients and steps of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid recipe id %q", args[0])
		}
		d, err := newRecipesClient().RecipeDetail(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), d)
	},
}

var recipesStepsCmd = &cobra.Command{
	Use:   "steps <video-id>",
	Short: "Extract cooking steps from a YouTube video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newRecipesClient().YoutubeRecipeSteps(cmd.Context(), args[0], recipesTitle)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

var recipesQuotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's YouTube API quota usage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := newRecipesClient().YoutubeQuota(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]int{
			"limit":     q.Limit,
			"usedToday": q.UsedToday,
			"remaining": q.Remaining(),
		})
	},
}

func init() {
	recipesIngredientsCmd.Flags().BoolVar(&recipesGrouped, "grouped", false, "Group by category")
	recipesRecommendCmd.Flags().Int64SliceVar(&recipesIDs, "ids", nil, "Ingredient ids (comma separated)")
	recipesRecommendCmd.Flags().StringSliceVar(&recipesNames, "names", nil, "Ingredient names (comma separated)")
	recipesRecommendCmd.Flags().BoolVar(&recipesStrict, "strict", false, "Only recipes using just these ingredients")
	recipesStepsCmd.Flags().StringVar(&recipesTitle, "title", "", "Video title (improves extraction)")

	recipesCmd.AddCommand(recipesIngredientsCmd)
	recipesCmd.AddCommand(recipesRecommendCmd)
	recipesCmd.AddCommand(recipesDetailCmd)
	recipesCmd.AddCommand(recipesStepsCmd)
	recipesCmd.AddCommand(recipesQuotaCmd)
}

func newRecipesClient() *recipes.Client {
	return recipes.NewClient(conf.API.BaseURL, conf.API.Timeout())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
