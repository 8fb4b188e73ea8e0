// Package stores is the local persistence layer: a SQLite database holding
// the configuration-fetch cache and the run history. The hypervisor itself
// is never mirrored here; resource state always comes from the API.
package stores
