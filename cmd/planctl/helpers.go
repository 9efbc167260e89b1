package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func parseIDArg(name, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func parseFloatArg(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return v, nil
}

// parseDateOrToday parses a YYYY-MM-DD date and defaults to the date of now.
func parseDateOrToday(flag, value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

// parseWeek parses the Monday of a plan week and defaults to the Monday of the current week.
func parseWeek(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		today, _ := parseDateOrToday("week", "", now)
		return today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7)), nil //nolint:mnd // days since Monday.
	}
	return parseDateOrToday("week", value, now)
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekdays parses comma-separated weekday names such as "mon,wed,fri".
func parseWeekdays(value string) ([]time.Weekday, error) {
	days := []time.Weekday{}
	for _, item := range splitList(value) {
		name := strings.ToLower(item)
		if len(name) > 3 { //nolint:mnd // three-letter prefix.
			name = name[:3]
		}
		d, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q", item)
		}
		days = append(days, d)
	}
	return days, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
