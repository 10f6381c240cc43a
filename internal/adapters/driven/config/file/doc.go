// Package file provides the TOML-backed configuration store.
//
// Keys are addressed with dot notation ("extraction.direct_window"); on disk
// they are written as nested tables so the file stays hand-editable.
package file
