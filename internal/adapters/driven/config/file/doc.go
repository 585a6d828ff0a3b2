// Package file provides the TOML-backed ConfigStore.
//
// Keys are addressed in dot notation ("notion.token") and written back
// as nested TOML tables.
package file
