// Package configs provides the embedded configuration template for
// rankfuse. The template is embedded at build time so `rankfuse config
// init` works in every distribution, source builds included.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `rankfuse config init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
