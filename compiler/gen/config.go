package gen

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultHeader is written at the top of every generated file.
const DefaultHeader = "Code generated by cdmgen. DO NOT EDIT."

// Config holds the global codegen configuration shared by the builder and
// the generators.
type Config struct {
	// Target is the output directory of the generated package.
	Target string
	// Package is the name of the generated Go package. Defaults to the base
	// name of Target.
	Package string
	// Header is the comment written at the top of each generated file.
	Header string
	// Suffix is the schema document suffix stripped from file stems when
	// building names. Defaults to the loader suffix.
	Suffix string
	// Features enables optional codegen features.
	Features []Feature
	// Workers bounds the number of units rendered in parallel.
	Workers int
	// Logger receives generation records. Defaults to slog.Default().
	Logger *slog.Logger
	// Hooks wrap the generator, outermost first.
	Hooks []Hook
	// Generator overrides the default Go generator.
	Generator Generator
}

// FeatureEnabled reports if the given feature name is enabled.
// It's exported to be used by the dialects.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	for _, f := range AllFeatures {
		if name == f.Name {
			for i := range c.Features {
				if name == c.Features[i].Name {
					return true, nil
				}
			}
			return f.Default, nil
		}
	}
	return false, fmt.Errorf("unexpected feature name %q", name)
}

// PackageName returns the generated package name: Package, or the base name
// of Target reduced to identifier characters, or "cdm".
func (c *Config) PackageName() string {
	if c.Package != "" {
		return c.Package
	}
	if c.Target == "" {
		return "cdm"
	}
	abs, err := filepath.Abs(c.Target)
	if err != nil {
		return "cdm"
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return -1
	}, filepath.Base(abs))
	if !token.IsIdentifier(name) {
		return "cdm"
	}
	return name
}

// HeaderComment returns the file header.
func (c *Config) HeaderComment() string {
	if c.Header != "" {
		return c.Header
	}
	return DefaultHeader
}

// WorkerCount returns the configured number of workers, or GOMAXPROCS.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Generator is the interface that wraps the Generate method.
type Generator interface {
	// Generate emits the graph into the configured target. Per-unit failures
	// are returned as EmitErrors; the error is reserved for fatal failures.
	Generate(context.Context, *Graph) ([]*EmitError, error)
}

// GenerateFunc allows ordinary functions to be used as a Generator.
type GenerateFunc func(context.Context, *Graph) ([]*EmitError, error)

// Generate calls f(ctx, g).
func (f GenerateFunc) Generate(ctx context.Context, g *Graph) ([]*EmitError, error) {
	return f(ctx, g)
}

// Hook defines the "generate middleware". A function that gets a Generator
// and returns a Generator. For example:
//
//	hook := func(next gen.Generator) gen.Generator {
//		return gen.GenerateFunc(func(ctx context.Context, g *gen.Graph) ([]*gen.EmitError, error) {
//			fmt.Println("Graph:", len(g.Nodes))
//			return next.Generate(ctx, g)
//		})
//	}
type Hook func(Generator) Generator

// Wrap applies the configured hooks to next.
func (c *Config) Wrap(next Generator) Generator {
	for i := len(c.Hooks) - 1; i >= 0; i-- {
		next = c.Hooks[i](next)
	}
	return next
}
