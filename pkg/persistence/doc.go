// Package persistence stores register configuration snapshots.
//
// A snapshot file is YAML: a small header (format version, time saved,
// port) followed by the configuration document dumped from the register
// tree, embedded verbatim.
package persistence
