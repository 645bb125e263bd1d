// Package circulation embeds the goose migrations of the circulation schema.
package circulation

import "embed"

//go:embed *.sql
var FS embed.FS
