package web

import "embed"

// TemplatesFS embeds the page layouts and shared partials.
//
//go:embed templates/*.html templates/pages/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
