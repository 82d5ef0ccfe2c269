package load

import (
	"bytes"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentBase is the URL namespace documents are registered under during
// validation. Relative $refs between documents resolve inside it.
const documentBase = "file:///schema/"

// validate compiles every document with all other documents registered as
// in-memory resources. Remote loading is disabled.
func validate(docs []*Document) []*ValidationWarning {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.LoadURL = func(s string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("schema %q is not part of the document set", s)
	}
	var warnings []*ValidationWarning
	for _, d := range docs {
		if err := c.AddResource(documentURL(d.ID), bytes.NewReader(d.raw)); err != nil {
			warnings = append(warnings, &ValidationWarning{ID: d.ID, Cause: err})
		}
	}
	for _, d := range docs {
		if _, err := c.Compile(documentURL(d.ID)); err != nil {
			warnings = append(warnings, &ValidationWarning{ID: d.ID, Cause: err})
		}
	}
	return warnings
}

func documentURL(id DocumentID) string {
	return documentBase + string(id)
}
