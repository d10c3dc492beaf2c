package model

import "strings"

// Category groups tasks by area. The set is closed; anything outside it is rejected.
type Category string

const (
	CategoryMeeting  Category = "meeting"
	CategoryPersonal Category = "personal"
	CategoryOther    Category = "other"
	CategoryWeekend  Category = "weekend"
	CategoryCooking  Category = "cooking"
)

// DefaultCategory is stored when a task is created without a category.
const DefaultCategory = CategoryOther

type categoryInfo struct {
	label string
	color string
}

var categoryTable = map[Category]categoryInfo{
	CategoryMeeting:  {label: "Meeting", color: "#3B82F6"},
	CategoryPersonal: {label: "Outing", color: "#06B6D4"},
	CategoryOther:    {label: "Other", color: "#8B5CF6"},
	CategoryWeekend:  {label: "Weekend", color: "#F59E0B"},
	CategoryCooking:  {label: "Cooking", color: "#EF4444"},
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryMeeting, CategoryPersonal, CategoryOther, CategoryWeekend, CategoryCooking}
}

// ParseCategory maps raw input to a Category. Matching is exact apart from
// surrounding whitespace. Empty input yields DefaultCategory.
func ParseCategory(raw string) (Category, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DefaultCategory, nil
	}
	c := Category(value)
	if !c.Valid() {
		return "", &FieldError{Field: "category", Reason: "must be one of meeting, personal, other, weekend, cooking"}
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return string(c)
}

// Color is the hex color clients paint the category with.
func (c Category) Color() string {
	return categoryTable[c].color
}
