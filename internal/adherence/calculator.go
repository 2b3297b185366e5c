// Package adherence derives the stats snapshot shown on the dashboards from
// the raw medication and intake-log collections.
package adherence

import (
	"math"
	"strings"
	"time"

	"github.com/yourname/medtracker/internal"
)

// maxStreakDays caps the backward walk; the streak display saturates here.
const maxStreakDays = 30

// ComputeStats derives the adherence snapshot as of the given instant. It is
// a pure function of its inputs: no I/O, no hidden state, and it never fails.
// Empty collections yield the zero snapshot.
//
// The monthly window treats every medication as one expected dose per
// calendar day regardless of its Frequency field, matching the behavior the
// dashboards were built against.
func ComputeStats(medications []internal.Medication, logs []internal.IntakeLog, asOf time.Time) internal.AdherenceStats {
	stats := internal.AdherenceStats{TotalMedications: len(medications)}

	today := asOf.Format(internal.DateLayout)

	// Taken today: one count per distinct medication, even if duplicate rows
	// slipped past the upsert invariant.
	takenToday := make(map[string]struct{})
	loggedDays := make(map[string]struct{})
	for _, l := range logs {
		day := dayOf(l.DateTaken)
		loggedDays[day] = struct{}{}
		if day == today {
			takenToday[l.MedicationID] = struct{}{}
		}
	}
	stats.TakenToday = len(takenToday)

	// Monthly window: one expected dose per medication per calendar day.
	year, month, _ := asOf.Date()
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, asOf.Location()).Day()
	expectedDoses := len(medications) * daysInMonth

	monthPrefix := asOf.Format("2006-01")
	actualDoses := 0
	for _, l := range logs {
		if strings.HasPrefix(l.DateTaken, monthPrefix) {
			actualDoses++
		}
	}

	// Not clamped above 100: backfilled entries can legitimately exceed it.
	if expectedDoses > 0 {
		stats.AdherencePercentage = int(math.Round(float64(actualDoses) / float64(expectedDoses) * 100))
	}
	if missed := expectedDoses - actualDoses; missed > 0 {
		stats.MissedThisMonth = missed
	}

	// Streak: consecutive days with at least one log, walking backward from
	// asOf's date inclusive.
	check := asOf
	for stats.CurrentStreak < maxStreakDays {
		if _, ok := loggedDays[check.Format(internal.DateLayout)]; !ok {
			break
		}
		stats.CurrentStreak++
		check = check.AddDate(0, 0, -1)
	}

	return stats
}

// dayOf normalizes a DateTaken value to its calendar-date prefix, tolerating
// full timestamps from non-compliant writers.
func dayOf(dateTaken string) string {
	if len(dateTaken) > len(internal.DateLayout) {
		return dateTaken[:len(internal.DateLayout)]
	}
	return dateTaken
}
