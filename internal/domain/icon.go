// internal/domain/icon.go
package domain

import (
	"strings"
	"unicode"
)

// DefaultIcon is stored when a category arrives without a known icon.
const DefaultIcon = "shopping_cart"

var knownIcons = map[string]struct{}{
	"shopping_cart":       {},
	"local_gas_station":   {},
	"restaurant":          {},
	"local_pharmacy":      {},
	"medical_services":    {},
	"directions_bus":      {},
	"train":               {},
	"local_taxi":          {},
	"confirmation_number": {},
	"movie":               {},
	"sports_esports":      {},
	"shopping_bag":        {},
	"school":              {},
	"menu_book":           {},
	"hotel":               {},
	"flight":              {},
	"fitness_center":      {},
	"face":                {},
	"content_cut":         {},
	"build":               {},
	"construction":        {},
	"support_agent":       {},
}

// NormalizeIcon maps an icon tag to its canonical snake_case form.
// Both "LocalTaxi" and "local_taxi" are accepted; anything unknown becomes DefaultIcon.
func NormalizeIcon(icon string) string {
	tag := toSnake(strings.TrimSpace(icon))
	if _, ok := knownIcons[tag]; ok {
		return tag
	}
	return DefaultIcon
}

func IsKnownIcon(icon string) bool {
	_, ok := knownIcons[toSnake(strings.TrimSpace(icon))]
	return ok
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// порядок важен: первое совпадение выигрывает
var iconKeywords = []struct {
	keyword string
	icon    string
}{
	{"азс", "local_gas_station"},
	{"заправк", "local_gas_station"},
	{"бензин", "local_gas_station"},
	{"топлив", "local_gas_station"},
	{"fuel", "local_gas_station"},
	{"gas", "local_gas_station"},
	{"кафе", "restaurant"},
	{"ресторан", "restaurant"},
	{"фастфуд", "restaurant"},
	{"еда", "restaurant"},
	{"restaurant", "restaurant"},
	{"cafe", "restaurant"},
	{"супермаркет", "shopping_cart"},
	{"продукт", "shopping_cart"},
	{"grocer", "shopping_cart"},
	{"аптек", "local_pharmacy"},
	{"лекарств", "local_pharmacy"},
	{"pharmacy", "local_pharmacy"},
	{"клиник", "medical_services"},
	{"медицин", "medical_services"},
	{"больниц", "medical_services"},
	{"такси", "local_taxi"},
	{"taxi", "local_taxi"},
	{"метро", "train"},
	{"жд", "train"},
	{"транспорт", "directions_bus"},
	{"автобус", "directions_bus"},
	{"transit", "directions_bus"},
	{"билет", "confirmation_number"},
	{"кино", "movie"},
	{"cinema", "movie"},
	{"развлечен", "sports_esports"},
	{"игр", "sports_esports"},
	{"онлайн", "shopping_bag"},
	{"маркетплейс", "shopping_bag"},
	{"одежд", "shopping_bag"},
	{"образован", "school"},
	{"курс", "school"},
	{"книг", "menu_book"},
	{"отел", "hotel"},
	{"hotel", "hotel"},
	{"авиа", "flight"},
	{"путешеств", "flight"},
	{"travel", "flight"},
	{"спорт", "fitness_center"},
	{"фитнес", "fitness_center"},
	{"красот", "face"},
	{"салон", "content_cut"},
	{"ремонт", "build"},
	{"строй", "construction"},
	{"услуг", "support_agent"},
}

// SuggestIcon guesses an icon tag from a free-text category name.
func SuggestIcon(categoryName string) string {
	name := strings.ToLower(categoryName)
	for _, kw := range iconKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.icon
		}
	}
	return DefaultIcon
}
