package hcc

import "github.com/yejune/go-hcc/internal/typegen"

// Generator interface for extra code generation.
// Implementations run after every successful Engine.Generate and can emit
// declarations, manifests or any other code based on the configuration.
type Generator interface {
	Generate(config *Config) error
}

// typesGenerator writes TypeScript declarations of the hydration payload to Config.TypesPath
type typesGenerator struct{}

func (typesGenerator) Generate(config *Config) error {
	return typegen.Generate(config.TypesFile())
}
