package items

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const (
	// ListSeparator joins multi-valued columns such as genres and studios.
	ListSeparator = "|"

	// VirtualPathPrefix marks placeholder paths that must never reach the index.
	VirtualPathPrefix = "%"

	// LibraryRootType is the type tag fragment shared by top-level library folders.
	LibraryRootType = "CollectionFolder"
)

// RawItem is one row of the media library as produced by an item source.
// List-valued fields are still joined with ListSeparator.
type RawItem struct {
	ID              string
	Type            *string
	ParentID        *string
	Name            *string
	Overview        *string
	OriginalTitle   *string
	SeriesName      *string
	Tagline         *string
	ProductionYear  *int
	CommunityRating *float64
	CriticRating    *float64
	IsFolder        *bool
	Path            *string
	Genres          *string
	Studios         *string
	Tags            *string
	Artists         *string
	AlbumArtists    *string

	// AncestorIDs is the item's ancestor closure, in source order.
	AncestorIDs []string
}

// Document is the search-engine representation of a library item.
// Nil fields are sent as JSON null.
type Document struct {
	GUID            string   `json:"guid"`
	Type            *string  `json:"type"`
	ParentID        *string  `json:"parentId"`
	LibraryID       *string  `json:"libraryId"`
	Name            *string  `json:"name"`
	Overview        *string  `json:"overview"`
	OriginalTitle   *string  `json:"originalTitle"`
	SeriesName      *string  `json:"seriesName"`
	ProductionYear  *int     `json:"productionYear"`
	Artists         []string `json:"artists"`
	AlbumArtists    []string `json:"albumArtists"`
	Genres          []string `json:"genres"`
	Studios         []string `json:"studios"`
	Tags            []string `json:"tags"`
	IsFolder        *bool    `json:"isFolder"`
	CommunityRating *float64 `json:"communityRating"`
	CriticRating    *float64 `json:"criticRating"`
	Path            *string  `json:"path"`
	Tagline         *string  `json:"tagline"`
}

// PrimaryKey is the document field used as the index primary key.
const PrimaryKey = "guid"

// IsLibraryRoot reports whether the item is a top-level library folder.
func (r RawItem) IsLibraryRoot() bool {
	return r.Type != nil && strings.Contains(*r.Type, LibraryRootType)
}

// NormalizeID returns the canonical form of a textual item identifier:
// lowercase hex without hyphens. Input that is not a GUID is lowercased and
// stripped of hyphens rather than rejected. Binary identifiers go through
// IDFromBytes first.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return strings.ToLower(strings.ReplaceAll(id, "-", ""))
	}
	return canonical(parsed)
}

// IDFromBytes decodes a 16-byte GUID stored in the .NET Guid.ToByteArray
// layout, where the first three groups are little-endian, and returns its
// canonical form.
func IDFromBytes(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("guid must be 16 bytes, got %d", len(b))
	}

	swapped := slices.Clone(b)
	slices.Reverse(swapped[0:4])
	slices.Reverse(swapped[4:6])
	slices.Reverse(swapped[6:8])

	parsed, err := uuid.FromBytes(swapped)
	if err != nil {
		return "", err
	}
	return canonical(parsed), nil
}

func canonical(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}

// SplitList splits a joined list column. Absent and empty values yield nil
// so consumers can tell "no value" from an explicit list.
func SplitList(joined *string) []string {
	if joined == nil || *joined == "" {
		return nil
	}
	return strings.Split(*joined, ListSeparator)
}

// Map converts a raw item into its search document. libraryID is the
// canonical identifier of the enclosing library, or "" when unknown.
func Map(r RawItem, libraryID string) Document {
	doc := Document{
		GUID:            NormalizeID(r.ID),
		Type:            r.Type,
		ParentID:        normalizedPtr(r.ParentID),
		Name:            r.Name,
		Overview:        r.Overview,
		OriginalTitle:   r.OriginalTitle,
		SeriesName:      r.SeriesName,
		ProductionYear:  r.ProductionYear,
		Artists:         SplitList(r.Artists),
		AlbumArtists:    SplitList(r.AlbumArtists),
		Genres:          SplitList(r.Genres),
		Studios:         SplitList(r.Studios),
		Tags:            SplitList(r.Tags),
		IsFolder:        r.IsFolder,
		CommunityRating: r.CommunityRating,
		CriticRating:    r.CriticRating,
		Path:            r.Path,
		Tagline:         r.Tagline,
	}
	if libraryID != "" {
		doc.LibraryID = &libraryID
	}

	// Applied last, after every other field is set.
	if doc.Path != nil && strings.HasPrefix(*doc.Path, VirtualPathPrefix) {
		doc.Path = nil
	}

	return doc
}

// MapAll resolves library membership for the whole set and maps every item.
func MapAll(raw []RawItem) []Document {
	libraries := ResolveLibraries(raw)
	docs := make([]Document, 0, len(raw))
	for i := range raw {
		docs = append(docs, Map(raw[i], libraries[NormalizeID(raw[i].ID)]))
	}
	return docs
}

func normalizedPtr(id *string) *string {
	if id == nil {
		return nil
	}
	n := NormalizeID(*id)
	if n == "" {
		return nil
	}
	return &n
}
