package alerts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoBroadcastSlot = errors.New("show has no broadcast day or time")
	ErrInvalidAirsDay  = errors.New("unrecognized broadcast day")
	ErrInvalidAirsTime = errors.New("unrecognized broadcast time")
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Layouts tried in order after upper-casing and dropping dots ("P.M." -> "PM").
var airsTimeLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
	"15:04",
	"15:04:05",
}

// AlertAnchor returns when the first alert for a weekly broadcast should fire:
// the next broadcast strictly after now, minus lead. When that instant is not
// after now the following week's broadcast is used. The broadcast time is read
// in now's location.
func AlertAnchor(now time.Time, airsDay, airsTime string, lead time.Duration) (time.Time, error) {
	if strings.TrimSpace(airsDay) == "" || strings.TrimSpace(airsTime) == "" {
		return time.Time{}, ErrNoBroadcastSlot
	}

	day, err := parseAirsDay(airsDay)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := parseAirsTime(airsTime)
	if err != nil {
		return time.Time{}, err
	}

	broadcast := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	broadcast = broadcast.AddDate(0, 0, (int(day)-int(now.Weekday())+7)%7)
	if !broadcast.After(now) {
		broadcast = broadcast.AddDate(0, 0, 7)
	}

	fire := broadcast.Add(-lead)
	if !fire.After(now) {
		fire = broadcast.AddDate(0, 0, 7).Add(-lead)
	}
	return fire, nil
}

func parseAirsDay(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if day, ok := weekdays[key]; ok {
		return day, nil
	}
	if len(key) == 3 {
		for name, day := range weekdays {
			if strings.HasPrefix(name, key) {
				return day, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAirsDay, s)
}

func parseAirsTime(s string) (hour, minute int, err error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, layout := range airsTimeLayouts {
		if t, perr := time.Parse(layout, normalized); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAirsTime, s)
}

// rollForward returns the first occurrence of next + k*interval (k >= 0)
// that is strictly after now. Missed occurrences are skipped.
func rollForward(next time.Time, interval time.Duration, now time.Time) time.Time {
	if next.After(now) || interval <= 0 {
		return next
	}
	missed := now.Sub(next)/interval + 1
	return next.Add(missed * interval)
}

// humanizeLead renders a lead time for the alert body: "2 hours", "1 hour",
// "90 minutes".
func humanizeLead(lead time.Duration) string {
	switch {
	case lead >= time.Hour && lead%time.Hour == 0:
		if lead == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", lead/time.Hour)
	case lead == time.Minute:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", lead/time.Minute)
	}
}
