// Package migrations holds the numbered SQL files applied by `hms-server migrate up`.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
