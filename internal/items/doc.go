// Package items defines the raw library rows consumed from an item source and
// the documents sent to the search index.
//
// Mapping is pure: Map turns one RawItem into one Document, splitting the
// pipe-joined list columns (genres, studios, tags, artists, album artists)
// and hiding virtual paths, which the library marks with a leading '%'.
//
// ResolveLibraries derives the libraryId of every item from the ancestor
// relation in bulk. A library is any item whose type tag contains
// "CollectionFolder".
package items
