// resolver_test.go: Test suite for dependency graph validation and ordering
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"testing"
)

func TestDetectCycle_Acyclic(t *testing.T) {
	graph := map[string][]string{
		"db":    {},
		"cache": {"db"},
		"auth":  {"db", "cache"},
		"api":   {"auth"},
	}

	if cycle := DetectCycle(graph); cycle != nil {
		t.Fatalf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_SimpleCycle(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	cycle := DetectCycle(graph)
	if len(cycle) == 0 {
		t.Fatal("expected a cycle")
	}

	// Every adjacent pair must be a real declared-dependency edge,
	// including the wrap-around edge from last to first.
	for i := range cycle {
		from := cycle[i]
		to := cycle[(i+1)%len(cycle)]
		found := false
		for _, dep := range graph[from] {
			if dep == to {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("cycle edge %s -> %s is not a declared dependency", from, to)
		}
	}
}

func TestDetectCycle_SelfDependency(t *testing.T) {
	graph := map[string][]string{
		"loop": {"loop"},
	}

	cycle := DetectCycle(graph)
	if len(cycle) != 1 || cycle[0] != "loop" {
		t.Fatalf("expected self-cycle [loop], got %v", cycle)
	}
}

func TestDetectCycle_UnknownEdgeIsNotACycle(t *testing.T) {
	// An edge to a never-registered name is a missing dependency, not a
	// cycle.
	graph := map[string][]string{
		"a": {"ghost"},
	}

	if cycle := DetectCycle(graph); cycle != nil {
		t.Fatalf("expected no cycle, got %v", cycle)
	}
	missing := DetectMissing(graph)
	if len(missing["a"]) != 1 || missing["a"][0] != "ghost" {
		t.Fatalf("expected missing map {a: [ghost]}, got %v", missing)
	}
}

func TestDetectMissing_Clean(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {},
	}

	if missing := DetectMissing(graph); len(missing) != 0 {
		t.Fatalf("expected no missing dependencies, got %v", missing)
	}
}

func TestTopologicalSort_DependenciesPrecedeDependents(t *testing.T) {
	graph := map[string][]string{
		"db":    {},
		"cache": {"db"},
		"auth":  {"db", "cache"},
		"api":   {"auth"},
	}
	subset := []string{"api", "auth", "cache", "db"}

	order, err := TopologicalSort(graph, subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != len(subset) {
		t.Fatalf("expected %d entries, got %d", len(subset), len(order))
	}

	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	for name, deps := range graph {
		for _, dep := range deps {
			if position[dep] >= position[name] {
				t.Errorf("dependency %s must precede %s, order %v", dep, name, order)
			}
		}
	}
}

func TestTopologicalSort_PermutationOfSubset(t *testing.T) {
	graph := map[string][]string{
		"a": {},
		"b": {},
		"c": {"a"},
	}

	order, err := TopologicalSort(graph, []string{"b", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected exactly the requested subset, got %v", order)
	}
	seen := map[string]bool{}
	for _, name := range order {
		seen[name] = true
	}
	if !seen["a"] || !seen["b"] || seen["c"] {
		t.Fatalf("expected permutation of [b a], got %v", order)
	}
}

func TestTopologicalSort_StableTieBreaking(t *testing.T) {
	// Independent plugins keep subset input order.
	graph := map[string][]string{
		"x": {},
		"y": {},
		"z": {},
	}

	order, err := TopologicalSort(graph, []string{"z", "x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"z", "x", "y"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected stable order %v, got %v", want, order)
		}
	}
}

func TestTopologicalSort_SubsetDoesNotPullUnrelatedNodes(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {},
		"c": {},
	}

	order, err := TopologicalSort(graph, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range order {
		if name == "c" {
			t.Fatalf("subset sort pulled in unrelated node: %v", order)
		}
	}
}

func TestTopologicalSort_RaisesOnCycle(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}

	_, err := TopologicalSort(graph, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if errorCode(err) != ErrCodeCircularDependency {
		t.Fatalf("expected code %s, got %s", ErrCodeCircularDependency, errorCode(err))
	}
}

func TestTopologicalSort_RaisesOnMissing(t *testing.T) {
	graph := map[string][]string{
		"a": {"ghost"},
	}

	_, err := TopologicalSort(graph, []string{"a"})
	if err == nil {
		t.Fatal("expected missing-dependency error")
	}
	if errorCode(err) != ErrCodeMissingDependency {
		t.Fatalf("expected code %s, got %s", ErrCodeMissingDependency, errorCode(err))
	}
}

func TestTopologicalSort_NilSubsetCoversWholeGraph(t *testing.T) {
	graph := map[string][]string{
		"b": {"a"},
		"a": {},
	}

	order, err := TopologicalSort(graph, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected [a b], got %v", order)
	}
}
