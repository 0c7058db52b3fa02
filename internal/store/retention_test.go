// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"testing"
	"time"
)

func TestNewSweeper_Horizons(t *testing.T) {
	day := 24 * time.Hour

	cases := []struct {
		name      string
		errDays   int
		execDays  int
		wantErr   time.Duration
		wantExec  time.Duration
		interval  time.Duration
		wantIntvl time.Duration
	}{
		{
			name:     "defaults",
			errDays:  0,
			execDays: 0,
			wantErr:  90 * day, wantExec: 90 * day,
			interval: 0, wantIntvl: 24 * time.Hour,
		},
		{
			name:     "executions follow error horizon when unset",
			errDays:  30,
			execDays: 0,
			wantErr:  30 * day, wantExec: 30 * day,
			interval: time.Hour, wantIntvl: time.Hour,
		},
		{
			name:     "independent horizons",
			errDays:  30,
			execDays: 365,
			wantErr:  30 * day, wantExec: 365 * day,
			interval: time.Hour, wantIntvl: time.Hour,
		},
		{
			name:     "executions may age faster than errors",
			errDays:  90,
			execDays: 7,
			wantErr:  90 * day, wantExec: 7 * day,
			interval: time.Hour, wantIntvl: time.Hour,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSweeper(nil, tc.errDays, tc.execDays, tc.interval)
			if s.errRetention != tc.wantErr {
				t.Errorf("error retention = %v, want %v", s.errRetention, tc.wantErr)
			}
			if s.execRetention != tc.wantExec {
				t.Errorf("execution retention = %v, want %v", s.execRetention, tc.wantExec)
			}
			if s.interval != tc.wantIntvl {
				t.Errorf("interval = %v, want %v", s.interval, tc.wantIntvl)
			}
		})
	}
}
