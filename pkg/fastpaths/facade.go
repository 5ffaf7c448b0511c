// Package fastpaths is the public entry point: it wires graph.InputGraph,
// prep.Graph, ch's ordering/contraction, and query.Calculator into the two
// operations callers actually need — Prepare and CalcPath.
package fastpaths

import (
	"log"

	"github.com/easbar/fast-paths/pkg/ch"
	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
	"github.com/easbar/fast-paths/pkg/query"
)

// Config tunes preparation.
type Config struct {
	// MaxSettledNodes bounds each witness search. Zero means
	// DefaultMaxSettledNodes.
	MaxSettledNodes int
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{MaxSettledNodes: ch.DefaultMaxSettledNodes}
}

func (c Config) chConfig() ch.Config {
	if c.MaxSettledNodes <= 0 {
		return ch.Config{MaxSettledNodes: ch.DefaultMaxSettledNodes}
	}
	return ch.Config{MaxSettledNodes: c.MaxSettledNodes}
}

// NewInputGraph re-exports graph.NewInputGraph so callers need only import
// this package for the common path.
func NewInputGraph() *graph.InputGraph { return graph.NewInputGraph() }

// Prepare runs the full offline pipeline: freezes ig if needed, builds the
// PreparationGraph, orders and contracts every node using the default
// heuristic order, and assembles the resulting FastGraph.
func Prepare(ig *graph.InputGraph, cfg Config) (*graph.FastGraph, error) {
	if !ig.Frozen() {
		ig.Freeze()
	}
	pg := prep.Build(ig)

	n := pg.NumNodes()
	log.Printf("fastpaths: contracting %d nodes", n)
	rank, shortcuts := ch.ContractAll(pg, cfg.chConfig())
	log.Printf("fastpaths: contraction done, %d shortcuts added", shortcuts)

	return ch.Assemble(pg, rank), nil
}

// PrepareWithOrder runs preparation using a caller-supplied contraction
// order instead of computing one, typically a rank permutation reused
// from a previous Prepare run over a structurally similar graph. Fails
// if order isn't a permutation of [0, ig.NumNodes()).
func PrepareWithOrder(ig *graph.InputGraph, order []graph.NodeID, cfg Config) (*graph.FastGraph, error) {
	if !ig.Frozen() {
		ig.Freeze()
	}
	pg := prep.Build(ig)

	rank, shortcuts, err := ch.ContractWithOrder(pg, cfg.chConfig(), order)
	if err != nil {
		return nil, err
	}
	log.Printf("fastpaths: contraction with reused order done, %d shortcuts added", shortcuts)

	return ch.Assemble(pg, rank), nil
}

// CreateCalculator returns a query.Calculator bound to fg, reusable across
// many single-threaded queries.
func CreateCalculator(fg *graph.FastGraph) *query.Calculator {
	return query.NewCalculator(fg)
}

// CalcPath is a one-shot convenience wrapper: it allocates a fresh
// Calculator for a single query. Callers issuing more than one
// query against the same FastGraph should use CreateCalculator and reuse
// it, since each call here pays the allocation cost of a new Calculator.
func CalcPath(fg *graph.FastGraph, s, t graph.NodeID) (*query.ShortestPath, error) {
	c := CreateCalculator(fg)
	return c.CalcPath(fg, s, t)
}
