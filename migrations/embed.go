// Package migrations embebe los scripts SQL del esquema para golang-migrate.
package migrations

import "embed"

// FS contiene los archivos NNNNNN_nombre.up.sql / .down.sql.
//
//go:embed *.sql
var FS embed.FS
