// Package web embeds the bundled themes.
package web

import "embed"

//go:embed themes
var Themes embed.FS
