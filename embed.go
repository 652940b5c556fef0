package pubnotion

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// analytics.js and style.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
