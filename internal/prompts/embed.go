// Package prompts provides externalized agent prompt templates with override support.
package prompts

import "embed"

//go:embed agents/*.md
var embeddedFS embed.FS
