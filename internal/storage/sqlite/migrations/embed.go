package migrations

import "embed"

// FS contains the embedded loot table migrations.
//
//go:embed *.sql
var FS embed.FS
