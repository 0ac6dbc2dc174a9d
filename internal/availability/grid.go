package availability

import (
	"fmt"
	"iter"
	"time"

	"turnolibre/pkg/model"
	"turnolibre/pkg/sanitizer"
)

// Slot is one theoretical bookable interval produced by the grid generator.
// Identity is (court, date, time); price is resolved at generation time with
// the same rule the booking commit path uses.
type Slot struct {
	CourtID   string  `json:"canchaId"`
	CourtName string  `json:"cancha"`
	Sport     string  `json:"deporte"`
	Date      string  `json:"fecha"`
	Time      string  `json:"hora"`
	Price     float64 `json:"precio"`
}

// Spanish weekday names indexed by time.Weekday, already in normalized form.
var weekdayNames = [7]string{
	"domingo",
	"lunes",
	"martes",
	"miercoles",
	"jueves",
	"viernes",
	"sabado",
}

// WeekAnchor returns the Monday of the week containing ref, at midnight in
// ref's location.
func WeekAnchor(ref time.Time) time.Time {
	daysSinceMonday := (int(ref.Weekday()) + 6) % 7
	anchor := ref.AddDate(0, 0, -daysSinceMonday)
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
}

// Grid produces the court's theoretical slots for the 7 days starting at
// weekStart. It is a pure function of its inputs: the returned sequence can
// be ranged over any number of times and always yields the same slots.
//
// Days not in the court's enabled set are skipped, except that an empty set
// means the court is open every day. Within a day the interval
// [openFrom, openUntil) is walked in steps of the slot duration; a trailing
// partial slot is dropped, never truncated.
func Grid(court *model.Court, weekStart time.Time) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		openMin, err := parseHHMM(court.OpenFrom)
		if err != nil {
			return
		}
		closeMin, err := parseHHMM(court.OpenUntil)
		if err != nil {
			return
		}

		duration := court.DurationMinutes()
		enabled := enabledDaySet(court.Weekdays)

		for day := 0; day < 7; day++ {
			date := weekStart.AddDate(0, 0, day)
			if enabled != nil && !enabled[weekdayNames[date.Weekday()]] {
				continue
			}

			dateStr := date.Format("2006-01-02")
			for m := openMin; m+duration <= closeMin; m += duration {
				slot := Slot{
					CourtID:   court.ID,
					CourtName: court.Name,
					Sport:     court.Sport,
					Date:      dateStr,
					Time:      fmt.Sprintf("%02d:%02d", m/60, m%60),
					Price:     ResolvePrice(court, m/60),
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}

// enabledDaySet returns nil for an empty list, meaning every day is open.
func enabledDaySet(days []string) map[string]bool {
	if len(days) == 0 {
		return nil
	}
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[sanitizer.NormalizeWeekday(d)] = true
	}
	return set
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}
