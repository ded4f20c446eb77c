// Package configs embeds the configuration template written by
// `amankb config init`.
//
// To change the template, edit project-config.example.yaml and rebuild.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented default project configuration.
// Its values match config.NewConfig.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
