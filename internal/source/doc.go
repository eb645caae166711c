// Package source reads library items from a Jellyfin style SQLite
// database.
//
// Two strategies are provided. SQLSource issues a single query and gathers
// each item's ancestors with a correlated subquery. TableSource loads the
// BaseItems and AncestorIds tables separately and joins them in memory.
// Both open the database read-only and never write to it.
package source
