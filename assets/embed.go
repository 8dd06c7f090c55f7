// Package assets bundles the files the server ships inside its binary:
// the browser terminal page and the SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web/index.html
var IndexHTML []byte

//go:embed sql/*.sql
var sqlFS embed.FS

// Migrations returns the migration files rooted at the sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// sql/ is embedded at build time; Sub only fails on a malformed path.
		panic(err)
	}
	return sub
}
