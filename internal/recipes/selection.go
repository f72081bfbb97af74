package recipes

import "slices"

// MaxIngredients caps a selection.
const MaxIngredients = 10

// OtherCategory collects ingredients without a category.
const OtherCategory = "기타"

// CategoryOrder lists the categories shown first, in order.
var CategoryOrder = []string{"고기·계란·통조림", "야채·채소", "양념·밥·면"}

// Selection is an ordered set of ingredient ids.
type Selection struct {
	ids []int64
}

// Toggle adds or removes id and reports whether it is selected afterwards.
// Adding beyond MaxIngredients is ignored.
func (s *Selection) Toggle(id int64) bool {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	if len(s.ids) >= MaxIngredients {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) Has(id int64) bool { return slices.Contains(s.ids, id) }

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) IDs() []int64 { return slices.Clone(s.ids) }

func (s *Selection) Clear() { s.ids = nil }

// Request builds a recommend request, resolving names from all.
func (s *Selection) Request(all []Ingredient, strict bool) (RecommendRequest, error) {
	if len(s.ids) == 0 {
		return RecommendRequest{}, ErrNoIngredients
	}
	req := RecommendRequest{IngredientIDs: s.IDs(), StrictOnly: strict}
	for _, ing := range all {
		if s.Has(ing.ID) {
			req.IngredientNames = append(req.IngredientNames, ing.Name)
		}
	}
	return req, nil
}

// Group is one category with its ingredients in input order.
type Group struct {
	Category string       `json:"category"`
	Items    []Ingredient `json:"items"`
}

// GroupByCategory groups ingredients with CategoryOrder first, then the
// remaining categories in first-seen order. Empty groups are omitted.
func GroupByCategory(ings []Ingredient) []Group {
	byCat := map[string][]Ingredient{}
	order := slices.Clone(CategoryOrder)
	for _, ing := range ings {
		cat := ing.Category
		if cat == "" {
			cat = OtherCategory
		}
		if !slices.Contains(order, cat) {
			order = append(order, cat)
		}
		byCat[cat] = append(byCat[cat], ing)
	}

	out := make([]Group, 0, len(byCat))
	for _, cat := range order {
		if items := byCat[cat]; len(items) > 0 {
			out = append(out, Group{Category: cat, Items: items})
		}
	}
	return out
}
