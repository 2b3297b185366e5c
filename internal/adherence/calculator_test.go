package adherence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/medtracker/internal"
)

// June 15 2025, noon UTC. June has 30 days.
var asOf = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func med(id string) internal.Medication {
	return internal.Medication{ID: id, UserID: "u1", Name: "Med " + id, Frequency: internal.FrequencyDaily}
}

func logOn(medID, date string) internal.IntakeLog {
	return internal.IntakeLog{
		ID:           medID + "-" + date,
		MedicationID: medID,
		UserID:       "u1",
		DateTaken:    date,
		TakenAt:      asOf,
	}
}

func dateDaysAgo(days int) string {
	return asOf.AddDate(0, 0, -days).Format(internal.DateLayout)
}

func TestComputeStats_EmptyLogs(t *testing.T) {
	meds := []internal.Medication{med("m1"), med("m2"), med("m3")}
	stats := ComputeStats(meds, nil, asOf)

	assert.Equal(t, 3, stats.TotalMedications)
	assert.Equal(t, 0, stats.TakenToday)
	assert.Equal(t, 0, stats.AdherencePercentage)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 90, stats.MissedThisMonth) // 3 meds x 30 days
}

func TestComputeStats_EmptyEverything(t *testing.T) {
	stats := ComputeStats(nil, nil, asOf)
	assert.Equal(t, internal.AdherenceStats{}, stats)
}

func TestComputeStats_NoMedicationsNoDivisionByZero(t *testing.T) {
	logs := []internal.IntakeLog{logOn("ghost", dateDaysAgo(0))}
	stats := ComputeStats(nil, logs, asOf)
	assert.Equal(t, 0, stats.AdherencePercentage)
	assert.Equal(t, 0, stats.MissedThisMonth)
}

func TestComputeStats_TakenTodayCountsMedicationsOnce(t *testing.T) {
	meds := []internal.Medication{med("m1"), med("m2")}
	today := dateDaysAgo(0)
	// m1 appears twice for today: non-compliant duplicate rows must not
	// double-count.
	logs := []internal.IntakeLog{
		logOn("m1", today),
		{ID: "dup", MedicationID: "m1", UserID: "u1", DateTaken: today, TakenAt: asOf},
		logOn("m2", today),
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 2, stats.TakenToday)
}

func TestComputeStats_MonthlyPercentage(t *testing.T) {
	// One medication, 10 logs within June: expected 30, actual 10 -> 33%.
	meds := []internal.Medication{med("m1")}
	var logs []internal.IntakeLog
	for day := 1; day <= 10; day++ {
		logs = append(logs, logOn("m1", fmt.Sprintf("2025-06-%02d", day)))
	}
	stats := ComputeStats(meds, logs, asOf)

	assert.Equal(t, 33, stats.AdherencePercentage)
	assert.Equal(t, 20, stats.MissedThisMonth)
}

func TestComputeStats_LogsOutsideMonthIgnored(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{
		logOn("m1", "2025-05-31"),
		logOn("m1", "2025-07-01"),
		logOn("m1", "2024-06-10"),
		logOn("m1", "2025-06-10"),
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 3, stats.AdherencePercentage) // round(1/30*100)
	assert.Equal(t, 29, stats.MissedThisMonth)
}

func TestComputeStats_OverLoggingNotClamped(t *testing.T) {
	// Backfilled entries can push the percentage past 100; the calculator
	// must not cap it, and missed must floor at zero.
	meds := []internal.Medication{med("m1")}
	var logs []internal.IntakeLog
	for day := 1; day <= 30; day++ {
		date := fmt.Sprintf("2025-06-%02d", day)
		logs = append(logs, logOn("m1", date))
		logs = append(logs, internal.IntakeLog{
			ID: "extra-" + date, MedicationID: "m2", UserID: "u1", DateTaken: date, TakenAt: asOf,
		})
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 200, stats.AdherencePercentage)
	assert.Equal(t, 0, stats.MissedThisMonth)
}

func TestComputeStats_StreakBoundary(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{
		logOn("m1", dateDaysAgo(0)),
		logOn("m1", dateDaysAgo(1)),
		logOn("m1", dateDaysAgo(2)),
		// nothing on day -3
		logOn("m1", dateDaysAgo(4)),
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 3, stats.CurrentStreak)
}

func TestComputeStats_StreakZeroWithoutTodayLog(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{
		logOn("m1", dateDaysAgo(1)),
		logOn("m1", dateDaysAgo(2)),
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 0, stats.CurrentStreak)
}

func TestComputeStats_StreakCapsAtThirty(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	var logs []internal.IntakeLog
	for days := 0; days < 45; days++ {
		logs = append(logs, logOn("m1", dateDaysAgo(days)))
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 30, stats.CurrentStreak)
}

func TestComputeStats_ToleratesTimestampDates(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{
		{ID: "l1", MedicationID: "m1", UserID: "u1", DateTaken: "2025-06-15T08:30:00Z", TakenAt: asOf},
	}
	stats := ComputeStats(meds, logs, asOf)
	assert.Equal(t, 1, stats.TakenToday)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestComputeStats_Deterministic(t *testing.T) {
	meds := []internal.Medication{med("m1"), med("m2")}
	logs := []internal.IntakeLog{
		logOn("m1", dateDaysAgo(0)),
		logOn("m2", dateDaysAgo(1)),
	}
	first := ComputeStats(meds, logs, asOf)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStats(meds, logs, asOf))
	}
}

func TestStatsCache_RecomputesOnlyOnVersionChange(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{logOn("m1", dateDaysAgo(0))}

	var cache StatsCache
	first := cache.Get(meds, logs, 1, 1, asOf)
	assert.Equal(t, 1, first.TakenToday)

	// Same versions: the memoized snapshot is returned even though the
	// underlying slice changed. Versions are the contract.
	moreLogs := append(logs, logOn("m1", dateDaysAgo(1)))
	cached := cache.Get(meds, moreLogs, 1, 1, asOf)
	assert.Equal(t, first, cached)

	// Bumped version: recompute.
	fresh := cache.Get(meds, moreLogs, 1, 2, asOf)
	assert.Equal(t, 2, fresh.CurrentStreak)

	// Explicit invalidation recomputes even with unchanged versions.
	cache.Invalidate()
	again := cache.Get(meds, logs, 1, 2, asOf)
	assert.Equal(t, 1, again.CurrentStreak)
}

func TestStatsCache_DayChangeInvalidates(t *testing.T) {
	meds := []internal.Medication{med("m1")}
	logs := []internal.IntakeLog{logOn("m1", dateDaysAgo(0))}

	var cache StatsCache
	today := cache.Get(meds, logs, 1, 1, asOf)
	assert.Equal(t, 1, today.TakenToday)

	tomorrow := cache.Get(meds, logs, 1, 1, asOf.AddDate(0, 0, 1))
	assert.Equal(t, 0, tomorrow.TakenToday)
}
