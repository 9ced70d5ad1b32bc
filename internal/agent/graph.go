package agent

import (
	"context"
	"fmt"
)

// End terminates a graph run.
const End = "__end__"

// Node is one step of the agent. It reads and updates the shared state.
type Node func(ctx context.Context, st *State) error

// Graph runs named nodes along explicit edges, starting at the entry node,
// until it reaches End.
type Graph struct {
	nodes map[string]Node
	edges map[string]string
	entry string
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string]string),
	}
}

func (g *Graph) AddNode(name string, n Node) *Graph {
	g.nodes[name] = n
	return g
}

func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

func (g *Graph) SetEntry(name string) *Graph {
	g.entry = name
	return g
}

// Validate checks that the path from the entry node reaches End without
// visiting a node twice.
func (g *Graph) Validate() error {
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("graph: unknown entry node %q", g.entry)
	}
	seen := make(map[string]bool, len(g.nodes))
	for cur := g.entry; cur != End; {
		if seen[cur] {
			return fmt.Errorf("graph: cycle at node %q", cur)
		}
		seen[cur] = true
		next, ok := g.edges[cur]
		if !ok {
			return fmt.Errorf("graph: node %q has no outgoing edge", cur)
		}
		if _, ok := g.nodes[next]; !ok && next != End {
			return fmt.Errorf("graph: edge %q -> %q targets an unknown node", cur, next)
		}
		cur = next
	}
	return nil
}

// Run executes the graph on st. It stops at the first node error.
func (g *Graph) Run(ctx context.Context, st *State) error {
	if err := g.Validate(); err != nil {
		return err
	}
	for cur := g.entry; cur != End; cur = g.edges[cur] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.nodes[cur](ctx, st); err != nil {
			return fmt.Errorf("%s: %w", cur, err)
		}
	}
	return nil
}
