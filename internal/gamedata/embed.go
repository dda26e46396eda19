// Package gamedata provides the embedded monster and item tables and utilities
// for loading them.
package gamedata

import (
	"embed"
	"io/fs"
)

// dataFS embeds all JSON files from this directory at build time.
//
//go:embed *.json
var dataFS embed.FS

// FS returns the embedded filesystem containing the default tables.
func FS() fs.FS {
	return dataFS
}
