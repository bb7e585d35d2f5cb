package domain

import "strings"

// CategoryID is the stable numeric identifier stored with every article.
type CategoryID int

// CategoryNone marks a candidate whose feed label has not been resolved.
const CategoryNone CategoryID = 0

const (
	CategoryEconomy CategoryID = iota + 1
	CategoryMarkets
	CategorySports
	CategoryEntertainment
	CategoryPolitics
	CategoryTechnology
	CategorySociety
	CategoryOpinion
	// CategoryUncategorized receives articles whose feed label matches nothing.
	CategoryUncategorized
)

type categoryEntry struct {
	id      CategoryID
	label   string
	aliases []string
}

// categoryTable is the single source for both directions of the mapping.
var categoryTable = []categoryEntry{
	{id: CategoryEconomy, label: "economy", aliases: []string{"경제"}},
	{id: CategoryMarkets, label: "markets", aliases: []string{"증권", "stocks", "securities"}},
	{id: CategorySports, label: "sports", aliases: []string{"스포츠"}},
	{id: CategoryEntertainment, label: "entertainment", aliases: []string{"연예"}},
	{id: CategoryPolitics, label: "politics", aliases: []string{"정치"}},
	{id: CategoryTechnology, label: "technology", aliases: []string{"IT", "tech"}},
	{id: CategorySociety, label: "society", aliases: []string{"사회"}},
	{id: CategoryOpinion, label: "opinion", aliases: []string{"오피니언"}},
	{id: CategoryUncategorized, label: "uncategorized", aliases: []string{"기타", "other"}},
}

var (
	labelsByID = map[CategoryID]string{}
	idsByLabel = map[string]CategoryID{}
)

func init() {
	for _, entry := range categoryTable {
		labelsByID[entry.id] = entry.label
		idsByLabel[normalizeLabel(entry.label)] = entry.id
		for _, alias := range entry.aliases {
			idsByLabel[normalizeLabel(alias)] = entry.id
		}
	}
}

// LookupCategory resolves a feed label (canonical name or alias, case-insensitive).
func LookupCategory(label string) (CategoryID, bool) {
	id, ok := idsByLabel[normalizeLabel(label)]
	return id, ok
}

// ResolveCategory is the write-path resolution: unknown labels map to CategoryUncategorized.
func ResolveCategory(label string) CategoryID {
	if id, ok := LookupCategory(label); ok {
		return id
	}
	return CategoryUncategorized
}

// Label returns the canonical label for a stored id.
func (c CategoryID) Label() (string, bool) {
	label, ok := labelsByID[c]
	return label, ok
}

// Valid reports whether the id belongs to the fixed category set.
func (c CategoryID) Valid() bool {
	_, ok := labelsByID[c]
	return ok
}

func (c CategoryID) String() string {
	if label, ok := c.Label(); ok {
		return label
	}
	return "none"
}

// Categories lists every category in id order.
func Categories() []CategoryID {
	ids := make([]CategoryID, 0, len(categoryTable))
	for _, entry := range categoryTable {
		ids = append(ids, entry.id)
	}
	return ids
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
