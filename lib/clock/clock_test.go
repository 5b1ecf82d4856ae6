// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeStandsStill(t *testing.T) {
	t.Parallel()

	c := Fake(epoch)
	if !c.Now().Equal(epoch) || !c.Now().Equal(epoch) {
		t.Errorf("Now moved without Advance: %v", c.Now())
	}
}

func TestFakeAdvanceAndSet(t *testing.T) {
	t.Parallel()

	c := Fake(epoch)
	c.Advance(90 * time.Second)
	if got := Since(c, epoch); got != 90*time.Second {
		t.Errorf("Since after Advance = %v, want 90s", got)
	}

	later := epoch.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now after Set = %v, want %v", c.Now(), later)
	}
}

func TestFakeRejectsGoingBackwards(t *testing.T) {
	t.Parallel()

	assertPanics(t, "Advance", func() { Fake(epoch).Advance(-time.Second) })
	assertPanics(t, "Set", func() { Fake(epoch).Set(epoch.Add(-time.Second)) })
}

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	f()
}

func TestRealIsCurrent(t *testing.T) {
	t.Parallel()

	before := time.Now()
	now := Real().Now()
	if now.Before(before) {
		t.Errorf("Real().Now() = %v, before %v", now, before)
	}
}
