package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/easbar/fast-paths/pkg/fastpaths"
	"github.com/easbar/fast-paths/pkg/osmgraph"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "graph.bin", "Output binary graph file path (a sidecar .osm file is written alongside it)")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	singapore := flag.Bool("singapore", false, "Shortcut for --bbox 1.15,103.6,1.48,104.1 (Singapore bounding box)")
	kl := flag.Bool("kl", false, "Shortcut for --bbox 2.75,101.2,3.5,102.0 (Selangor + Kuala Lumpur bounding box)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf> [--output graph.bin] [--singapore | --kl | --bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}

	// Parse bbox option.
	var opts osmgraph.BuildOptions
	opts.FilterToLargestComponent = true
	if *kl {
		opts.BBox = osmgraph.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}
		log.Println("Using Selangor + KL bounding box filter: lat [2.75, 3.50], lng [101.20, 102.00]")
	} else if *singapore {
		opts.BBox = osmgraph.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
		log.Println("Using Singapore bounding box filter: lat [1.15, 1.48], lng [103.6, 104.1]")
	} else if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = osmgraph.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}
	opts.Config = fastpaths.DefaultConfig()

	start := time.Now()

	// Step 1: Open the OSM extract.
	log.Println("Opening OSM file...")
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	// Step 2-4: parse, extract the largest connected component, and run
	// contraction hierarchy preparation.
	log.Println("Parsing OSM data and running contraction hierarchy preparation...")
	ds, err := osmgraph.Build(context.Background(), f, opts)
	if err != nil {
		log.Fatalf("Failed to build dataset: %v", err)
	}
	log.Printf("Prepared: %d nodes, %d fwd edges, %d bwd edges", ds.NumNodes(), ds.NumFwdEdges(), ds.NumBwdEdges())

	// Step 5: Serialize to binary (core graph + domain sidecar).
	log.Printf("Writing binary to %s...", *output)
	if err := osmgraph.SaveDataset(*output, ds); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	info, _ := os.Stat(*output)
	sidecarInfo, _ := os.Stat(*output + ".osm")
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB) + sidecar (%.1f MB)",
		elapsed.Round(time.Second), *output, float64(info.Size())/(1024*1024), float64(sidecarInfo.Size())/(1024*1024))
}
