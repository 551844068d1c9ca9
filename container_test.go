// container_test.go: Test suite for the in-memory service container
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"testing"
)

func TestMemoryContainer_SingletonConstructedOnce(t *testing.T) {
	c := NewMemoryContainer()

	built := 0
	c.RegisterSingleton("db", func() any {
		built++
		return "connection"
	})

	if !c.Has("db") {
		t.Fatal("expected Has to report registered service")
	}

	first, ok := c.Get("db")
	if !ok || first != "connection" {
		t.Fatalf("expected resolution, got %v/%v", first, ok)
	}
	second, _ := c.Get("db")
	if second != "connection" || built != 1 {
		t.Fatalf("expected cached singleton, factory ran %d times", built)
	}
}

func TestMemoryContainer_MissingService(t *testing.T) {
	c := NewMemoryContainer()

	if c.Has("ghost") {
		t.Fatal("expected Has false for unknown key")
	}
	if _, ok := c.Get("ghost"); ok {
		t.Fatal("expected Get miss for unknown key")
	}
}

func TestMemoryContainer_RemoveAndReregister(t *testing.T) {
	c := NewMemoryContainer()

	c.RegisterSingleton("svc", func() any { return 1 })
	if _, ok := c.Get("svc"); !ok {
		t.Fatal("expected resolution before removal")
	}

	c.Remove("svc")
	if c.Has("svc") {
		t.Fatal("expected removal")
	}

	c.RegisterSingleton("svc", func() any { return 2 })
	v, _ := c.Get("svc")
	if v != 2 {
		t.Fatalf("expected fresh registration to win, got %v", v)
	}
}

func TestMemoryContainer_RegisteredServicesSorted(t *testing.T) {
	c := NewMemoryContainer()

	c.RegisterSingleton("zeta", func() any { return nil })
	c.RegisterSingleton("alpha", func() any { return nil })

	keys := c.RegisteredServices()
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "zeta" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}
