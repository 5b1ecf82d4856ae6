// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps records or measures durations takes a Clock instead
// of calling time.Now directly. In production, Real() reads the system
// clock. In tests, Fake() returns a clock that stands still until
// Advance or Set moves it, so timestamps and durations are exact:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	log, _ := agent.OpenSessionLog(path, "session", c)
//	c.Advance(90 * time.Second)
//	log.Summary().Duration // 90s
package clock
