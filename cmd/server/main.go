package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/easbar/fast-paths/pkg/api"
	"github.com/easbar/fast-paths/pkg/osmgraph"
)

func main() {
	graphPath := flag.String("graph", "graph.bin", "Path to preprocessed graph binary")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	start := time.Now()

	// Load the prepared dataset (core FastGraph plus its domain sidecar).
	log.Printf("Loading graph from %s...", *graphPath)
	ds, err := osmgraph.LoadDataset(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	log.Printf("Loaded: %d nodes, %d fwd edges, %d bwd edges",
		ds.NumNodes(), ds.NumFwdEdges(), ds.NumBwdEdges())

	// Build the query-side router (spatial index rebuilt from the sidecar's
	// original adjacency and node coordinates).
	log.Println("Building spatial index...")
	router := osmgraph.NewRouter(ds)

	// Reclaim memory from init-time temporaries. Without this, Go's heap
	// retains peak RSS from index construction (GC doubles heap each cycle:
	// 120→240→480→960→1920 MB). This returns unused pages to the OS.
	runtime.GC()
	debug.FreeOSMemory()

	loadTime := time.Since(start)
	log.Printf("Ready in %s", loadTime.Round(time.Millisecond))

	// Setup HTTP server.
	addr := fmt.Sprintf(":%d", *port)
	cfg := api.DefaultConfig(addr)
	cfg.CORSOrigin = *corsOrigin

	stats := api.StatsResponse{
		NumNodes:    ds.NumNodes(),
		NumFwdEdges: ds.NumFwdEdges(),
		NumBwdEdges: ds.NumBwdEdges(),
	}

	handlers := api.NewHandlers(router, stats)
	srv := api.NewServer(cfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
