// Package web holds the embedded console assets.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
