// cdmgen generates Go types from a Common Data Model JSON Schema corpus.
//
//	cdmgen generate CDM-master/schemaDocuments --target ./cdm
//	cdmgen watch --config cdmgen.yaml
//	cdmgen inspect ./cdm/internal/graph.msgpack
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
