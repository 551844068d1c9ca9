// recovery.go: Panic recovery for plugin-supplied callbacks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"fmt"
	"runtime"
)

// invokeGuarded runs fn, converting a panic into a returned error that
// carries the panic value and a trimmed stack trace. Plugin hooks run
// through this guard so a panicking plugin surfaces as a recordable hook
// failure instead of crashing the orchestrator.
func invokeGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 16<<10)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("panic: %v\n%s", r, buf[:n])
		}
	}()
	return fn()
}
