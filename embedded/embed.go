// Package embedded carries the spec document baked into a packaged build.
// assets/ ships empty; `oascli spec pack` drops a document in before the
// build step embeds it.
package embedded

import "embed"

//go:embed all:assets
var FS embed.FS
