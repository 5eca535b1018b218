package email

import "strings"

type Category string

const (
	CategoryPrimary    Category = "Primary"
	CategoryPromotions Category = "Promotions"
	CategorySocial     Category = "Social"
	CategoryUpdates    Category = "Updates"
	CategoryForums     Category = "Forums"
	CategorySpam       Category = "Spam"
)

// CategoryDefinition is one line of the classification taxonomy.
type CategoryDefinition struct {
	Category    Category
	Description string
}

// Taxonomy lists the categories in the order they are presented to the model.
var Taxonomy = []CategoryDefinition{
	{CategoryPrimary, "Important, personal conversations between individuals."},
	{CategoryPromotions, "Marketing emails, offers, and newsletters."},
	{CategorySocial, "Notifications from social media platforms like Facebook, X, and LinkedIn."},
	{CategoryUpdates, "Automated transactional emails like order confirmations, shipping notices, bills, or flight alerts."},
	{CategoryForums, "Messages from mailing lists, online groups, and discussion boards."},
	{CategorySpam, "Unsolicited, irrelevant, or malicious emails."},
}

// IsKnown reports whether c is one of the six taxonomy categories.
// The comparison is exact; labels are passed through verbatim from the model.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryPrimary, CategoryPromotions, CategorySocial, CategoryUpdates, CategoryForums, CategorySpam:
		return true
	}
	return false
}

// Canonical maps a label to its taxonomy spelling ignoring case ("updates" -> Updates).
// The second return value is false when no taxonomy category matches.
func (c Category) Canonical() (Category, bool) {
	for _, def := range Taxonomy {
		if strings.EqualFold(string(def.Category), string(c)) {
			return def.Category, true
		}
	}
	return c, false
}

func (c Category) String() string {
	return string(c)
}
