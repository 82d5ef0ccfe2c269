// Package cdmgen generates Go types from a corpus of Common Data Model JSON
// Schema documents.
//
// A run has four stages, each in its own package:
//
//   - compiler/load walks the schema root and parses every document.
//   - compiler/resolve indexes every definition and links each $ref to its target.
//   - compiler/gen builds the named type graph and renders it with a dialect.
//   - compiler/gen/golang is the Go dialect: records, enums, arrays, maps, unions and aliases.
//
// The compiler package chains the stages and cmd/cdmgen exposes them on the
// command line:
//
//	cdmgen generate CDM-master/schemaDocuments --target ./cdm --features validator
package cdmgen
