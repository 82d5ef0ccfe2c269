// testgen is a simple test program to demonstrate the Jennifer-based code generator.
// Run: go run ./compiler/gen/cmd/testgen
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/syssam/cdmgen/compiler/gen"
	"github.com/syssam/cdmgen/compiler/gen/golang"
	"github.com/syssam/cdmgen/compiler/load"
	"github.com/syssam/cdmgen/compiler/resolve"
)

// Sample documents, in the shape of the CDM corpus.
var documents = map[load.DocumentID]string{
	"core/account.cdm.json": `{
		"description": "Business that represents a customer or potential customer.",
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"primaryContact": {"$ref": "contact.cdm.json"},
			"statecode": {"$ref": "#/definitions/State"},
			"revenue": {"$ref": "../shared/money.cdm.json#/definitions/Money"}
		},
		"required": ["name"],
		"definitions": {
			"State": {"enum": ["active", "inactive"]}
		}
	}`,
	"core/contact.cdm.json": `{
		"type": "object",
		"properties": {
			"fullName": {"type": "string"},
			"parentAccount": {"$ref": "account.cdm.json"},
			"emails": {"type": "array", "items": {"type": "string"}}
		}
	}`,
	"shared/money.cdm.json": `{
		"definitions": {
			"Money": {
				"type": "object",
				"properties": {
					"amount": {"type": "number"},
					"currency": {"type": ["string", "null"]}
				},
				"required": ["amount"]
			}
		}
	}`,
}

func main() {
	// Create a temp directory for output
	outDir, err := os.MkdirTemp("", "cdmgen-jennifer-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output directory: %s\n", outDir)

	var docs []*load.Document
	for id, src := range documents {
		doc, err := load.Parse(id, strings.NewReader(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", id, err)
			os.Exit(1)
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	res := resolve.Resolve(docs)
	if err := res.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
	}

	// Create config with functional options
	config, err := gen.NewConfig(
		gen.WithPackage("cdm"),
		gen.WithTarget(outDir),
		gen.WithFeatures(gen.FeatureValidator),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create config: %v\n", err)
		os.Exit(1)
	}

	// Create the graph
	graph, err := gen.NewGraph(config, res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create graph: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generating code with Jennifer (Go dialect)...")
	emitErrs, err := golang.Generate(context.Background(), graph)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}
	for _, e := range emitErrs {
		fmt.Fprintf(os.Stderr, "  %v\n", e)
	}

	// List generated files
	fmt.Println("\nGenerated files:")
	err = filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			relPath, _ := filepath.Rel(outDir, path)
			fmt.Printf("  %s (%d bytes)\n", relPath, info.Size())
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list files: %v\n", err)
	}

	fmt.Println("\n--- Sample: account.go ---")
	if content, err := os.ReadFile(filepath.Join(outDir, "account.go")); err == nil {
		fmt.Print(string(content))
	}

	fmt.Println("\nTo verify compilation: go vet " + outDir)
	fmt.Println("Done!")
}
