package core

import (
	"strings"

	"github.com/google/uuid"
)

// Category is a user-defined category with its display decoration.
type Category struct {
	ID        uuid.UUID
	Name      string
	Emoji     string
	ColorHex  string
	IsExpense bool
}

// defaultEmojis maps the built-in Italian category names. Lookup is
// case-insensitive; display keeps the stored casing.
var defaultEmojis = map[string]string{
	"cibo":         "🍖",
	"macchina":     "🚙",
	"svago":        "🍿",
	"casa":         "🏡",
	"shopping":     "🛍️",
	"salute":       "🫀",
	"trasporti":    "🚌",
	"sport":        "⚽",
	"viaggi":       "✈️",
	"animali":      "🐕",
	"spesa":        "🛒",
	"regali":       "🎁",
	"stipendio":    "💼",
	"regalo":       "🎁",
	"bonus":        "💸",
	"investimenti": "📈",
}

const fallbackEmoji = "🏷️"

// EmojiFor resolves the emoji shown next to a category name. Custom
// categories win over the built-in set; unknown names get the generic
// tag.
func EmojiFor(name string, custom []Category) string {
	if c, ok := FindCategory(name, custom); ok {
		return c.Emoji
	}
	if emoji, ok := defaultEmojis[strings.ToLower(name)]; ok {
		return emoji
	}
	return fallbackEmoji
}

// FindCategory performs the case-insensitive lookup used for emoji and
// color resolution. Aggregation buckets never use this: they key on the
// literal stored string.
func FindCategory(name string, custom []Category) (Category, bool) {
	lower := strings.ToLower(name)
	for _, c := range custom {
		if strings.ToLower(c.Name) == lower {
			return c, true
		}
	}
	return Category{}, false
}
