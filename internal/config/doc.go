// Package config loads, saves and watches the search engine configuration.
//
// The configuration lives in a YAML file:
//
//	url: http://meilisearch:7700
//	api_key: masterKey
//	index_name: my-library
//	request_timeout: 30s
//
// MEILI_URL and MEILI_MASTER_KEY override url and api_key when set. The
// index name falls back to the application name when empty.
package config
