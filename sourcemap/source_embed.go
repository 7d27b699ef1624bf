package sourcemap

import "embed"

// Sources embeds the source-map sources; the runtime support package
// depends on them, so the plugin build writes both into its module
// directory.
//
//go:embed sourcemap.go builder.go runtime.go
var Sources embed.FS
