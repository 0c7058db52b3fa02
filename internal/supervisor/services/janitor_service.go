// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package services

import "context"

// CleanupStarter launches a background cleanup loop and returns a channel
// that stops the loop when closed.
//
// Satisfied by dedup.StartCleanupRoutine and ratelimit.StartCleanupRoutine
// once bound to their component and interval:
//
//	func() chan struct{} { return dedup.StartCleanupRoutine(tracker, 5*time.Minute) }
type CleanupStarter func() chan struct{}

// JanitorService adapts a stop-channel cleanup loop to suture.Service.
//
// The wrapped loop is restarted by starting a fresh routine; the cleanup
// functions are idempotent, so a restart after a crash only delays the next
// sweep by one interval.
type JanitorService struct {
	start CleanupStarter
	name  string
}

// NewJanitorService creates a supervised wrapper around a cleanup loop.
//
// Example usage:
//
//	svc := services.NewJanitorService("dedup-janitor", func() chan struct{} {
//	    return dedup.StartCleanupRoutine(tracker, 5*time.Minute)
//	})
//	tree.AddDataService(svc)
func NewJanitorService(name string, start CleanupStarter) *JanitorService {
	return &JanitorService{
		start: start,
		name:  name,
	}
}

// Serve implements suture.Service.
//
// It starts the cleanup routine, blocks until the context is canceled, then
// closes the stop channel so the routine's goroutine exits.
func (s *JanitorService) Serve(ctx context.Context) error {
	stop := s.start()
	<-ctx.Done()
	close(stop)
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *JanitorService) String() string {
	return s.name
}
