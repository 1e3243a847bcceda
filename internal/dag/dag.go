// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for topological sorting
// and cycle detection. The task graph uses it to validate the registered
// prerequisite edges as a whole and to print a static execution plan.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle contains the nodes that take part in the cycle (not necessarily all of
		// them, but enough to identify the problem).
		Cycle []string
	}

	// Graph is a directed graph of task names.
	// An edge from A to B means "A is a prerequisite of B": A must complete before B starts.
	Graph struct {
		// adjacency maps each node to the nodes that depend on it.
		adjacency map[string][]string
		// reverse maps each node to its prerequisites, in edge insertion order.
		reverse map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		reverse:   make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that prerequisite must run before dependent.
// Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(prerequisite, dependent string) {
	g.AddNode(prerequisite)
	g.AddNode(dependent)
	g.adjacency[prerequisite] = append(g.adjacency[prerequisite], dependent)
	g.reverse[dependent] = append(g.reverse[dependent], prerequisite)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	return g.nodeSet[name]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TopologicalSort returns a valid execution order using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: nodes at the same topological level
// appear in the order they were first added to the graph.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		// Remaining nodes with non-zero in-degree form the cycle.
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return result, nil
}

// Subgraph returns the graph induced by root and everything it transitively
// depends on. Nodes keep their original insertion order. Returns nil if root
// is not part of the graph.
func (g *Graph) Subgraph(root string) *Graph {
	if !g.nodeSet[root] {
		return nil
	}

	keep := map[string]bool{root: true}
	stack := []string{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, prereq := range g.reverse[node] {
			if !keep[prereq] {
				keep[prereq] = true
				stack = append(stack, prereq)
			}
		}
	}

	sub := New()
	for _, node := range g.nodes {
		if keep[node] {
			sub.AddNode(node)
		}
	}
	for _, node := range g.nodes {
		if !keep[node] {
			continue
		}
		for _, dependent := range g.adjacency[node] {
			if keep[dependent] {
				sub.AddEdge(node, dependent)
			}
		}
	}
	return sub
}
