// Package migrations SQL-схема, применяется goose при старте
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
