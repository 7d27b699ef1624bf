package scriptrt

import "embed"

// Sources embeds the runtime support sources so the plugin build can
// reconstruct this package inside its own module directory.
//
//go:embed hash.go script.go trace.go value.go
var Sources embed.FS
