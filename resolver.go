// resolver.go: Dependency graph validation and ordering
//
// Pure functions over a name -> dependency-list view of the registry:
// cycle detection, missing-dependency detection, and deterministic
// topological ordering. TopologicalSort is the single gate callers rely
// on to answer "is this dependency graph installable".
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import "sort"

// DetectCycle searches the dependency graph for a circular dependency.
//
// The graph maps each plugin name to its declared dependency names. Only
// edges to known plugin names are followed; an edge to an unregistered
// name is not a cycle and is diagnosed separately by DetectMissing.
//
// Returns the cycle as an ordered list of member names, where the first
// element conceptually repeats after the last, or nil when the graph is
// acyclic. Traversal is a depth-first search per unvisited node with a
// recursion stack: revisiting a node already on the stack yields the
// stack slice from that node's first occurrence to the current node.
func DetectCycle(graph map[string][]string) []string {
	visited := make(map[string]bool, len(graph))
	onStack := make(map[string]bool, len(graph))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		visited[name] = true
		onStack[name] = true
		stack = append(stack, name)

		for _, dep := range graph[name] {
			if _, known := graph[dep]; !known {
				continue
			}
			if onStack[dep] {
				for i, member := range stack {
					if member == dep {
						cycle := make([]string, len(stack)-i)
						copy(cycle, stack[i:])
						return cycle
					}
				}
			}
			if !visited[dep] {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		onStack[name] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, name := range sortedKeys(graph) {
		if !visited[name] {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// DetectMissing returns, for each plugin declaring at least one dependency
// absent from the graph, the list of those absent names in declaration
// order. An empty map means every declared dependency resolves.
func DetectMissing(graph map[string][]string) map[string][]string {
	missing := make(map[string][]string)
	for name, deps := range graph {
		for _, dep := range deps {
			if _, known := graph[dep]; !known {
				missing[name] = append(missing[name], dep)
			}
		}
	}
	return missing
}

// TopologicalSort orders subset so that every dependency precedes its
// dependents. A nil subset means the whole graph, ordered by the graph's
// sorted key order for reproducibility; callers wanting insertion order
// pass it explicitly.
//
// The graph is re-validated first: a circular dependency or a declared
// dependency missing from the graph raises before any ordering is
// produced, making this function the single installability gate.
//
// Dependency edges are followed only when the dependency is also inside
// subset, so sorting a partial subset never pulls in unrelated nodes.
// Ties among independent plugins are broken by subset input order, which
// keeps install order stable and deterministic across runs.
func TopologicalSort(graph map[string][]string, subset []string) ([]string, error) {
	if cycle := DetectCycle(graph); cycle != nil {
		return nil, NewCircularDependencyError(cycle)
	}
	if missing := DetectMissing(graph); len(missing) > 0 {
		return nil, NewMissingDependencyError(missing)
	}

	if subset == nil {
		subset = sortedKeys(graph)
	}
	inSubset := make(map[string]bool, len(subset))
	for _, name := range subset {
		inSubset[name] = true
	}

	const (
		unmarked = iota
		visiting
		done
	)
	marks := make(map[string]int, len(subset))
	order := make([]string, 0, len(subset))

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			// The pre-check should have caught this; guard against
			// re-entrant cycles during the sort itself.
			return NewCircularDependencyError([]string{name})
		}
		marks[name] = visiting
		for _, dep := range graph[name] {
			if !inSubset[dep] {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		marks[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range subset {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// sortedKeys returns the graph's keys in lexical order. Used where no
// caller-supplied ordering exists so results stay reproducible.
func sortedKeys(graph map[string][]string) []string {
	keys := make([]string, 0, len(graph))
	for k := range graph {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
