// Command packshotd runs the packshot daemon as a standalone process. The
// daemon holds the single-instance lock, serves the HTTP and IPC control
// surfaces, and executes retrieval runs.
package main

import (
	"context"
	"log"

	"packshot/internal/config"
	"packshot/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Fatalf("packshotd: %v", err)
	}
}
