// Command meilisync keeps a Meilisearch index of a Jellyfin library in sync.
//
// # Commands
//
//   - serve: HTTP API, periodic indexing and configuration reloads
//   - index: one indexing pass; the exit code reflects the outcome
//   - status: apply the configuration and print the connection status
//   - search <query>: query the index
//   - config show | set-url <url> | set-key: edit the configuration file
//   - version: build information
//
// Process settings come from the environment (see package startup); the
// Meilisearch connection is configured in the YAML file named by CONFIG_FILE.
//
// # HTTP Server
//
// serve runs two HTTP servers:
//
//  1. Main server (default port 8080): /health, /healthz, /livez, /readyz,
//     /version, POST /api/reindex, GET /api/status and GET /api/search.
//  2. Metrics server (default port 9090, optional): /metrics and /health.
//
// SIGINT and SIGTERM stop the servers, the config watcher, the indexer and
// the search session in that order.
package main
