// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package services

import "context"

// Runner is the blocking-loop lifecycle shared by several Signalmesh
// components. Run must block until ctx is done and then return ctx.Err();
// a non-nil return before that signals a crash and triggers a supervised
// restart.
//
// Satisfied by:
//   - *health.Monitor (adapter probe loop)
//   - *store.Sweeper (retention sweep loop)
//   - *alerts.Dispatcher (alert relay loop)
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service. Component state lives on
// the component, not the loop, so a restart resumes where the crashed run
// left off.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService creates a supervised wrapper around a Runner.
//
// Example usage:
//
//	monitor := health.NewMonitor(registry, dispatcher, recorder, cfg)
//	tree.AddMonitorService(services.NewRunnerService("health-monitor", monitor))
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service by delegating to the component's Run.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.Run(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RunnerService) String() string {
	return s.name
}
