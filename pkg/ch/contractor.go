package ch

import (
	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
)

// Shortcut is a candidate or applied shortcut edge (u,w,weight) introduced
// while contracting center.
type Shortcut struct {
	From, To graph.NodeID
	Weight   graph.Weight
	Center   graph.NodeID
}

// NodeContractor enumerates the shortcuts required to contract a node and,
// on request, applies them to a PreparationGraph.
type NodeContractor struct {
	g  *prep.Graph
	ws *WitnessSearch

	// scratch, reused across calls to avoid per-node allocation.
	incoming []prep.Entry
	outgoing []prep.Entry
}

// NewNodeContractor creates a NodeContractor operating on g, using ws for
// witness searches.
func NewNodeContractor(g *prep.Graph, ws *WitnessSearch) *NodeContractor {
	return &NodeContractor{g: g, ws: ws}
}

// Shortcuts computes the shortcuts required to contract v, without
// mutating the PreparationGraph. Used both by Contract and by the Orderer
// for simulated contraction.
func (nc *NodeContractor) Shortcuts(v graph.NodeID) []Shortcut {
	nc.incoming = nc.incoming[:0]
	nc.outgoing = nc.outgoing[:0]

	nc.g.InEdges(v, func(e prep.Entry) { nc.incoming = append(nc.incoming, e) })
	nc.g.OutEdges(v, func(e prep.Entry) { nc.outgoing = append(nc.outgoing, e) })

	if len(nc.incoming) == 0 || len(nc.outgoing) == 0 {
		return nil
	}

	var shortcuts []Shortcut

	for _, in := range nc.incoming {
		u := in.Node
		if u == v {
			continue
		}

		// Upper bound for this incoming neighbor's batch witness search:
		// max over w in W of weight(u,v)+weight(v,w).
		var maxWeight uint32
		any := false
		for _, out := range nc.outgoing {
			if out.Node == u || out.Node == v {
				continue
			}
			cand := in.Weight + out.Weight
			if cand > maxWeight {
				maxWeight = cand
			}
			any = true
		}
		if !any {
			continue
		}

		hitCap := nc.ws.Search(u, v, maxWeight)

		for _, out := range nc.outgoing {
			w := out.Node
			if w == u || w == v {
				continue
			}
			scWeight := in.Weight + out.Weight

			// Inconclusive termination (settled-node cap reached)
			// conservatively declares the shortcut required.
			required := hitCap || nc.ws.DistTo(w) > scWeight
			if required {
				shortcuts = append(shortcuts, Shortcut{From: u, To: w, Weight: scWeight, Center: v})
			}
		}
	}

	return shortcuts
}

// Contract contracts v: computes its required shortcuts, inserts them into
// the PreparationGraph, and marks v contracted. Returns the shortcuts
// actually applied (InsertShortcut may no-op when a cheaper parallel edge
// already exists).
func (nc *NodeContractor) Contract(v graph.NodeID) []Shortcut {
	shortcuts := nc.Shortcuts(v)

	applied := shortcuts[:0]
	for _, sc := range shortcuts {
		if nc.g.InsertShortcut(sc.From, sc.To, sc.Weight, sc.Center) {
			applied = append(applied, sc)
		}
	}

	nc.g.Contract(v)
	return applied
}
