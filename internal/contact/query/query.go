// Package query derives the visible contact list from the full collection.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"contactbook/internal/contact/models"
	pstrings "contactbook/pkg/platform/strings"
)

// Filter returns the contacts matching text within scope, in input order.
// A blank query returns contacts unchanged. Matching is case-insensitive
// substring containment; this is a filter, not a ranking.
func Filter(contacts []models.Contact, text string, scope models.Scope) []models.Contact {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return contacts
	}

	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if Matches(c, needle, scope) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether c matches an already trimmed, lowercased needle.
// Unknown scopes behave like ScopeAll.
func Matches(c models.Contact, needle string, scope models.Scope) bool {
	switch scope {
	case models.ScopeName:
		return pstrings.ContainsFold(c.Name, needle)
	case models.ScopeTags:
		return anyTagContains(c.Tags, needle)
	case models.ScopeCompany:
		return pstrings.ContainsFold(c.Company, needle)
	default:
		return pstrings.ContainsFold(c.Name, needle) ||
			pstrings.ContainsFold(c.Email, needle) ||
			pstrings.ContainsFold(c.Company, needle) ||
			anyTagContains(c.Tags, needle)
	}
}

func anyTagContains(tags []string, needle string) bool {
	for _, tag := range tags {
		if pstrings.ContainsFold(tag, needle) {
			return true
		}
	}
	return false
}

// SortByName orders contacts in place by name, case-insensitive ascending,
// using Unicode collation. Equal names keep their prior relative order.
func SortByName(contacts []models.Contact) {
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(contacts, func(i, j int) bool {
		return col.CompareString(strings.ToLower(contacts[i].Name), strings.ToLower(contacts[j].Name)) < 0
	})
}
