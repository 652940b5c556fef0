// Package scaffold embeds the starter project written by "pubnotion new".
package scaffold

import "embed"

// Templates contains the starter project files.
// Files use Go text/template syntax; a .tmpl suffix is stripped on output.
//
//go:embed all:templates
var Templates embed.FS
