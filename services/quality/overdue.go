// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package quality

import "time"

// Urgency classifies a form's close-out due date.
type Urgency string

const (
	UrgencyOverdue Urgency = "OVERDUE"
	UrgencyDueSoon Urgency = "DUE_SOON"
	UrgencyOnTrack Urgency = "ON_TRACK"
)

// DueSoonWindowDays is how many days before the due date a form counts
// as approaching.
const DueSoonWindowDays = 3

// DaysOverdue returns whole days past the close-out due date. Negative
// values mean days remaining; zero means due today. Computed on
// calendar dates, so partial days never round a form into overdue
// early.
func DaysOverdue(due, now time.Time) int {
	due = truncateToDay(due)
	today := truncateToDay(now)
	return int(today.Sub(due).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UrgencyFor maps a DaysOverdue value to its urgency band.
func UrgencyFor(daysOverdue int) Urgency {
	switch {
	case daysOverdue > 0:
		return UrgencyOverdue
	case daysOverdue >= -DueSoonWindowDays:
		return UrgencyDueSoon
	default:
		return UrgencyOnTrack
	}
}
