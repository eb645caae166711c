// Package search owns the session with the Meilisearch engine.
//
// A Manager holds at most one live session and the index handle resolved
// from the applied configuration. Operations run through Execute or
// Manager.Do; a transient failure drops the session, reconnects once with
// the last applied configuration, and replays the operation a single time.
//
//	m := search.NewManager("Jellyfin Server", search.Dial)
//	m.Apply(ctx, cfg)
//	err := m.Do(ctx, func(ctx context.Context, _ search.Session, idx search.Index) error {
//		_, err := idx.AddDocuments(ctx, docs)
//		return err
//	})
//
// The engine itself is reached through the Session and Index interfaces so
// the connection protocol can be exercised against fakes.
package search
