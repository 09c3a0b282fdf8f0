package embed

import "embed"

// Assets contains the static assets served under /_synsite/.
//
//go:embed *.css
var Assets embed.FS
