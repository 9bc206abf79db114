package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"mold_autotest/internal/service"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	sessionCurrent = "current"
)

// isDateOnly reports whether the value represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

func parseTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}

// parseLogFilter reads "events [type] [from=..] [to=..] [session=..]".
// A date-only 'to' is treated as the end of that day.
func (c *Console) parseLogFilter(args []string) (service.LogFilter, error) {
	var f service.LogFilter
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			if f.Type != "" {
				return f, errUsage
			}
			f.Type = a
			continue
		}
		switch strings.ToLower(k) {
		case "from":
			t, err := parseTime(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s", errUsage, errFromInvalid)
			}
			f.From = t
		case "to":
			t, err := parseTime(v)
			if err != nil {
				return f, fmt.Errorf("%w: %s", errUsage, errToInvalid)
			}
			if isDateOnly(v) {
				t = t.Add(24*time.Hour - time.Nanosecond).UTC()
			}
			f.To = t
		case "session":
			if v == sessionCurrent {
				v = c.services.Testing.SessionInfo("").SessionID
			}
			f.SessionID = v
		default:
			return f, errUsage
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("%w: 'from' must be <= 'to'", errUsage)
	}
	return f, nil
}

func (c *Console) events(ctx context.Context, w io.Writer, args []string) error {
	f, err := c.parseLogFilter(args)
	if err != nil {
		return err
	}
	events, err := c.services.EventLog.List(ctx, f)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-16s %s\n", e.OccurredAt.Local().Format(layoutDateTime), e.Type, e.Description)
	}
	fmt.Fprintf(w, "%d event(s)\n", len(events))
	return nil
}
