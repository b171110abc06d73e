// Package rubric holds the static scoring tables for group-discussion and
// personal-interview sessions.
package rubric

type SessionType string

const (
	TypeGD SessionType = "gd"
	TypePI SessionType = "pi"
)

func (t SessionType) Valid() bool {
	return t == TypeGD || t == TypePI
}

// SubField is a weighted part of a category. The maxima of a category's
// sub-fields add up to the category maximum.
type SubField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Max  int    `json:"max"`
}

type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Max       int        `json:"max"`
	SubFields []SubField `json:"subFields,omitempty"`
}

// Clamp bounds v to [0, c.Max].
func (c Category) Clamp(v int) int {
	return clamp(v, c.Max)
}

func (c Category) SubField(id string) (SubField, bool) {
	for _, sf := range c.SubFields {
		if sf.ID == id {
			return sf, true
		}
	}
	return SubField{}, false
}

// Clamp bounds v to [0, f.Max].
func (f SubField) Clamp(v int) int {
	return clamp(v, f.Max)
}

// SubScoreKey is the key under which a sub-field value is stored.
func SubScoreKey(categoryID, subFieldID string) string {
	return categoryID + "." + subFieldID
}

// ForType returns the ordered categories for t. The result is a copy and may
// be modified by the caller.
func ForType(t SessionType) []Category {
	var src []Category
	switch t {
	case TypeGD:
		src = gdCategories
	case TypePI:
		src = piCategories
	default:
		return []Category{}
	}
	res := make([]Category, len(src))
	for i, c := range src {
		res[i] = c
		res[i].SubFields = append([]SubField(nil), c.SubFields...)
	}
	return res
}

func Lookup(t SessionType, categoryID string) (Category, bool) {
	for _, c := range ForType(t) {
		if c.ID == categoryID {
			return c, true
		}
	}
	return Category{}, false
}

// MaxTotal is the highest total score reachable for t.
func MaxTotal(t SessionType) int {
	total := 0
	for _, c := range ForType(t) {
		total += c.Max
	}
	return total
}

// CategoryIDs lists category ids of t in rubric order.
func CategoryIDs(t SessionType) []string {
	cats := ForType(t)
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func clamp(v int, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
