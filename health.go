// health.go: Health-check fan-out and aggregation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"time"

	"github.com/agilira/go-timecache"
)

// TriggerHealthCheck polls every active plugin implementing the health
// hook, in activation order, and merges the results into one aggregate.
//
// Merge rules:
//   - A report carrying detailed checks contributes each entry under the
//     key "pluginName:checkName" so plugins cannot collide.
//   - A report with no detailed checks contributes a single synthesized
//     entry keyed by the plugin name, its status derived from the
//     report's overall level (healthy/degraded/unhealthy map to
//     pass/warn/fail).
//   - Any unhealthy report forces the aggregate unhealthy and nothing
//     downgrades it back. A degraded report upgrades the aggregate from
//     healthy to degraded only.
//   - A hook that fails or panics contributes a synthetic fail entry
//     carrying the error message and forces the aggregate unhealthy.
//
// Each plugin's check duration is measured and reported via the debug
// log. The returned aggregate carries a capture timestamp from the
// cached clock.
func (o *Orchestrator[Req, Resp]) TriggerHealthCheck(ctx context.Context) AggregatedHealth {
	o.mu.Lock()
	defer o.mu.Unlock()

	overall := AggregatedHealth{
		Status:    HealthHealthy,
		Checks:    make(map[string]CheckResult),
		Timestamp: timecache.CachedTime(),
	}
	if o.disposed {
		return overall
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnHealthCheck == nil {
			continue
		}

		start := time.Now()
		var report HealthReport
		err := invokeGuarded(func() error {
			var hookErr error
			report, hookErr = p.OnHealthCheck(ctx, o.container)
			return hookErr
		})
		elapsed := time.Since(start)

		if err != nil {
			o.recordHookError(name, "healthCheck", err)
			overall.Checks[name] = CheckResult{
				Status:  CheckFail,
				Message: err.Error(),
			}
			overall.Status = HealthUnhealthy
			continue
		}

		if len(report.Checks) > 0 {
			for checkName, result := range report.Checks {
				overall.Checks[name+":"+checkName] = result
			}
		} else {
			overall.Checks[name] = CheckResult{
				Status:  checkStatusFor(report.Level),
				Message: report.Message,
			}
		}

		switch report.Level {
		case HealthUnhealthy:
			overall.Status = HealthUnhealthy
		case HealthDegraded:
			if overall.Status != HealthUnhealthy {
				overall.Status = HealthDegraded
			}
		}

		o.logger.Debug("Plugin health checked",
			"plugin", name,
			"level", report.Level.String(),
			"elapsed", elapsed)
	}

	return overall
}
