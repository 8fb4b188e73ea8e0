// Package config obtains the declarative stack document. It fetches YAML
// text from a remote key-value configuration service (base URL plus ordered
// lookup levels, most specific first), caches fetched values locally, and
// parses the document into an engine.Stack.
//
// Parsing deliberately keeps every scalar a string: resource specs are
// passed to the hypervisor verbatim, and implicit YAML type coercion of
// names and values ("no" becoming false, "1.10" becoming a float) would
// corrupt them.
package config
