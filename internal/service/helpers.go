package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
)

const zoneinfoMarker = "zoneinfo" + string(filepath.Separator)

// ResolveLocation loads the viewer's time zone. An empty name means the
// host zone; the returned name is always an IANA identifier.
func ResolveLocation(name string) (*time.Location, string, error) {
	if name == "" {
		name = hostZoneName()
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, loc.String(), nil
}

func hostZoneName() string {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if i := strings.LastIndex(target, zoneinfoMarker); i >= 0 {
			return target[i+len(zoneinfoMarker):]
		}
	}
	return "UTC"
}

var localTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// CombineLocal merges a calendar date and a wall clock time read in loc.
func CombineLocal(date, clock string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(date) + "T" + strings.TrimSpace(clock)
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q time %q", models.ErrInvalidSchedule, date, clock)
}
