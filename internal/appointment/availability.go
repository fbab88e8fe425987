package appointment

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStride is the booking granularity used when no override is
// configured.
const DefaultStride = 30 * time.Minute

// SlotsForDate expands a provider's weekly template into the discrete slots
// for one date and marks each against the already-booked times (cancelled
// bookings excluded by the caller). Capacity is reported separately from
// slot availability: both constraints must independently pass at booking
// time.
func SlotsForDate(provider *Provider, date string, bookedTimes []string, stride time.Duration) (DaySchedule, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if stride <= 0 {
		stride = DefaultStride
	}

	remaining := provider.MaxPatientsPerDay - len(bookedTimes)
	if remaining < 0 {
		remaining = 0
	}

	weekday := strings.ToLower(day.Weekday().String())

	var window *WeeklyInterval
	for i := range provider.Availability {
		if strings.EqualFold(provider.Availability[i].Day, weekday) {
			window = &provider.Availability[i]
			break
		}
	}
	if window == nil {
		return DaySchedule{
			RemainingCapacity: remaining,
			Reason:            fmt.Sprintf("%s has no working hours on %s", provider.Name, day.Weekday()),
		}, nil
	}

	start, err := parseHHMM(window.Start)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("template start for %s: %w", window.Day, err)
	}
	end, err := parseHHMM(window.End)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("template end for %s: %w", window.Day, err)
	}

	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	step := int(stride.Minutes())
	var slots []Slot
	for t := start; end-t >= step; t += step {
		hhmm := formatHHMM(t)
		slots = append(slots, Slot{
			Time:      hhmm,
			Available: !booked[hhmm],
		})
	}

	return DaySchedule{
		Slots:             slots,
		RemainingCapacity: remaining,
	}, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
