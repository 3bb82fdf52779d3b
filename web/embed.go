// Package web holds the embedded page templates and browser assets.
package web

import "embed"

// TemplatesFS holds the layout, partials and one template per view.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
