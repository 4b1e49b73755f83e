// Package workflow implements the graph executor that drives a post generation run.
package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/protocol"
)

// End is the terminal marker of a graph.
const End = "__end__"

var (
	ErrDuplicateNode    = errors.New("node already registered")
	ErrUnknownNode      = errors.New("unknown node")
	ErrNoEntryPoint     = errors.New("graph has no entry point")
	ErrDanglingNode     = errors.New("node has no outgoing edge")
	ErrDuplicateEdge    = errors.New("node already has an outgoing edge")
	ErrUnknownRoute     = errors.New("router returned an unmapped route")
	ErrGraphNotCompiled = errors.New("graph is not compiled")
)

// Router picks the route key of a conditional edge from the post-merge state.
type Router func(state *models.WorkflowState) string

type conditionalEdge struct {
	decide Router
	routes map[string]string
}

// Graph is a directed graph of named nodes. Every node has exactly one outgoing
// edge, either unconditional or routed by a decision function.
type Graph struct {
	entry       string
	nodes       map[string]protocol.Node
	order       []string
	edges       map[string]string
	conditional map[string]conditionalEdge
	compiled    bool
	errs        []error
}

func NewGraph() *Graph {
	return &Graph{
		nodes:       make(map[string]protocol.Node),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
	}
}

// AddNode registers node under its ID.
func (g *Graph) AddNode(node protocol.Node) *Graph {
	id := node.ID()
	if _, exists := g.nodes[id]; exists {
		g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, id))

		return g
	}

	g.nodes[id] = node
	g.order = append(g.order, id)

	return g
}

// SetEntryPoint marks the first node of every run.
func (g *Graph) SetEntryPoint(name string) *Graph {
	g.entry = name

	return g
}

// AddEdge connects from to to unconditionally.
func (g *Graph) AddEdge(from, to string) *Graph {
	if g.hasOutgoing(from) {
		g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, from))

		return g
	}

	g.edges[from] = to

	return g
}

// AddConditionalEdges routes from to routes[decide(state)].
func (g *Graph) AddConditionalEdges(from string, decide Router, routes map[string]string) *Graph {
	if g.hasOutgoing(from) {
		g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, from))

		return g
	}

	g.conditional[from] = conditionalEdge{decide: decide, routes: routes}

	return g
}

// Compile validates the topology. A compiled graph is read-only and may be
// shared by concurrent runs.
func (g *Graph) Compile() error {
	errs := slices.Clone(g.errs)

	if g.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, ok := g.nodes[g.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: entry point %s", ErrUnknownNode, g.entry))
	}

	for _, id := range g.order {
		if !g.hasOutgoing(id) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDanglingNode, id))
		}
	}

	for from, to := range g.edges {
		errs = append(errs, g.checkTarget(from, to)...)
	}

	for from, edge := range g.conditional {
		if edge.decide == nil {
			errs = append(errs, fmt.Errorf("conditional edge from %s has no router", from))
		}

		for _, to := range edge.routes {
			errs = append(errs, g.checkTarget(from, to)...)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	g.compiled = true

	return nil
}

// Nodes returns node names in registration order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

// Next resolves the node that follows from for the given state.
func (g *Graph) Next(from string, state *models.WorkflowState) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}

	edge, ok := g.conditional[from]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDanglingNode, from)
	}

	route := edge.decide(state)

	to, ok := edge.routes[route]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrUnknownRoute, route, from)
	}

	return to, nil
}

func (g *Graph) node(name string) (protocol.Node, bool) {
	node, ok := g.nodes[name]

	return node, ok
}

func (g *Graph) hasOutgoing(from string) bool {
	_, plain := g.edges[from]
	_, routed := g.conditional[from]

	return plain || routed
}

func (g *Graph) checkTarget(from, to string) []error {
	var errs []error

	if _, ok := g.nodes[from]; !ok {
		errs = append(errs, fmt.Errorf("%w: edge source %s", ErrUnknownNode, from))
	}

	if to == End {
		return errs
	}

	if _, ok := g.nodes[to]; !ok {
		errs = append(errs, fmt.Errorf("%w: edge target %s", ErrUnknownNode, to))
	}

	return errs
}
