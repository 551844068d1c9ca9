// health_test.go: Test suite for health-check aggregation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthPlugin(name string, report HealthReport, err error) *testPlugin {
	return &testPlugin{Name: name, Version: "1.0.0",
		OnHealthCheck: func(ctx context.Context, c ServiceContainer) (HealthReport, error) {
			return report, err
		}}
}

func TestTriggerHealthCheck_AllHealthy(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, healthPlugin("a", HealthReport{Level: HealthHealthy}, nil)))
	require.NoError(t, o.Use(ctx, healthPlugin("b", HealthReport{Level: HealthHealthy}, nil)))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, HealthHealthy, agg.Status)
	assert.Equal(t, CheckPass, agg.Checks["a"].Status)
	assert.Equal(t, CheckPass, agg.Checks["b"].Status)
	assert.False(t, agg.Timestamp.IsZero())
}

func TestTriggerHealthCheck_UnhealthyIsSticky(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, healthPlugin("down", HealthReport{Level: HealthUnhealthy}, nil)))
	require.NoError(t, o.Use(ctx, healthPlugin("fine", HealthReport{Level: HealthHealthy}, nil)))
	require.NoError(t, o.Use(ctx, healthPlugin("meh", HealthReport{Level: HealthDegraded}, nil)))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, HealthUnhealthy, agg.Status,
		"one unhealthy plugin forces overall unhealthy; nothing downgrades it back")
	assert.Equal(t, CheckFail, agg.Checks["down"].Status)
	assert.Equal(t, CheckPass, agg.Checks["fine"].Status)
	assert.Equal(t, CheckWarn, agg.Checks["meh"].Status)
}

func TestTriggerHealthCheck_DegradedUpgradesHealthyOnly(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, healthPlugin("fine", HealthReport{Level: HealthHealthy}, nil)))
	require.NoError(t, o.Use(ctx, healthPlugin("meh", HealthReport{Level: HealthDegraded}, nil)))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, HealthDegraded, agg.Status)
}

func TestTriggerHealthCheck_DetailedChecksArePrefixed(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, healthPlugin("db", HealthReport{
		Level: HealthHealthy,
		Checks: map[string]CheckResult{
			"connection": {Status: CheckPass},
			"replica":    {Status: CheckWarn, Message: "lagging"},
		},
	}, nil)))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, CheckPass, agg.Checks["db:connection"].Status)
	assert.Equal(t, CheckWarn, agg.Checks["db:replica"].Status)
	_, hasBare := agg.Checks["db"]
	assert.False(t, hasBare, "detailed reports must not synthesize a bare entry")
}

func TestTriggerHealthCheck_HookFailureForcesUnhealthy(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, healthPlugin("fine", HealthReport{Level: HealthHealthy}, nil)))
	require.NoError(t, o.Use(ctx, healthPlugin("crash", HealthReport{}, errors.New("probe exploded"))))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, HealthUnhealthy, agg.Status)
	require.Contains(t, agg.Checks, "crash")
	assert.Equal(t, CheckFail, agg.Checks["crash"].Status)
	assert.Contains(t, agg.Checks["crash"].Message, "probe exploded")

	info, _ := o.GetDebugInfo("crash")
	require.Error(t, info.Error)
}

func TestTriggerHealthCheck_SkipsPluginsWithoutHook(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	require.NoError(t, o.Use(ctx, &testPlugin{Name: "mute", Version: "1.0.0"}))

	agg := o.TriggerHealthCheck(ctx)
	assert.Equal(t, HealthHealthy, agg.Status)
	assert.Empty(t, agg.Checks)
}
