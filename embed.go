package texted

import "embed"

// EmbeddedAssets contains static assets shipped with texted: the default
// stylesheet served at /public/texted.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
