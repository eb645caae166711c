package items

// Field groups of the document schema. The order of SearchableFields is the
// relevance order used by the engine.
var (
	SearchableFields = []string{
		"name",
		"overview",
		"originalTitle",
		"seriesName",
		"tagline",
		"genres",
		"studios",
		"tags",
		"artists",
		"albumArtists",
	}

	FilterableFields = []string{"type", "parentId", "isFolder", "libraryId"}

	SortableFields = []string{"communityRating", "criticRating"}
)

// DisplayedFields returns the searchable fields followed by the identifying
// fields returned with every hit.
func DisplayedFields() []string {
	fields := make([]string, 0, len(SearchableFields)+3)
	fields = append(fields, SearchableFields...)
	return append(fields, PrimaryKey, "type", "libraryId")
}
