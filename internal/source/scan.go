package source

import (
	"database/sql"
	"fmt"
	"strings"

	"meilisync/internal/items"
)

// itemColumns lists the BaseItems columns every strategy reads, in scan
// order.
const itemColumns = `bi.Id, bi.Type, bi.ParentId, bi.CommunityRating,
	bi.Name, bi.Overview, bi.ProductionYear, bi.Genres,
	bi.Studios, bi.Tags, bi.IsFolder, bi.CriticRating,
	bi.OriginalTitle, bi.SeriesName, bi.Artists,
	bi.AlbumArtists, bi.Path, bi.Tagline`

// itemRow holds the nullable scan targets for itemColumns.
type itemRow struct {
	id              idColumn
	typ             sql.NullString
	parentID        idColumn
	communityRating sql.NullFloat64
	name            sql.NullString
	overview        sql.NullString
	productionYear  sql.NullInt64
	genres          sql.NullString
	studios         sql.NullString
	tags            sql.NullString
	isFolder        sql.NullBool
	criticRating    sql.NullFloat64
	originalTitle   sql.NullString
	seriesName      sql.NullString
	artists         sql.NullString
	albumArtists    sql.NullString
	path            sql.NullString
	tagline         sql.NullString
}

func (r *itemRow) targets() []any {
	return []any{
		&r.id, &r.typ, &r.parentID, &r.communityRating,
		&r.name, &r.overview, &r.productionYear, &r.genres,
		&r.studios, &r.tags, &r.isFolder, &r.criticRating,
		&r.originalTitle, &r.seriesName, &r.artists,
		&r.albumArtists, &r.path, &r.tagline,
	}
}

func (r *itemRow) rawItem() items.RawItem {
	item := items.RawItem{
		ID:              r.id.String,
		Type:            nullString(r.typ),
		ParentID:        r.parentID.ptr(),
		Name:            nullString(r.name),
		Overview:        nullString(r.overview),
		OriginalTitle:   nullString(r.originalTitle),
		SeriesName:      nullString(r.seriesName),
		Tagline:         nullString(r.tagline),
		CommunityRating: nullFloat(r.communityRating),
		CriticRating:    nullFloat(r.criticRating),
		Path:            nullString(r.path),
		Genres:          nullString(r.genres),
		Studios:         nullString(r.studios),
		Tags:            nullString(r.tags),
		Artists:         nullString(r.artists),
		AlbumArtists:    nullString(r.albumArtists),
	}
	if r.productionYear.Valid {
		year := int(r.productionYear.Int64)
		item.ProductionYear = &year
	}
	if r.isFolder.Valid {
		folder := r.isFolder.Bool
		item.IsFolder = &folder
	}
	return item
}

// idColumn scans an identifier stored either as TEXT or as a 16-byte BLOB
// in the .NET GUID layout. BLOB ids are converted to their canonical text.
type idColumn struct {
	String string
	Valid  bool
}

// Scan implements sql.Scanner.
func (c *idColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = idColumn{}
	case string:
		*c = idColumn{String: v, Valid: true}
	case []byte:
		if len(v) != 16 {
			*c = idColumn{String: string(v), Valid: true}
			return nil
		}
		id, err := items.IDFromBytes(v)
		if err != nil {
			return err
		}
		*c = idColumn{String: id, Valid: true}
	default:
		return fmt.Errorf("unsupported id column type %T", src)
	}
	return nil
}

func (c idColumn) ptr() *string {
	if !c.Valid {
		return nil
	}
	s := c.String
	return &s
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// splitAncestors splits a group_concat result.
func splitAncestors(v sql.NullString) []string {
	if !v.Valid || v.String == "" {
		return nil
	}
	return strings.Split(v.String, ",")
}
