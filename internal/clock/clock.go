package clock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidTimezone is matched by every InvalidTimezoneError via errors.Is.
var ErrInvalidTimezone = errors.New("invalid timezone")

// InvalidTimezoneError reports a zone name the tz database does not know.
type InvalidTimezoneError struct {
	Name string
}

func (e *InvalidTimezoneError) Error() string {
	return "invalid timezone: " + e.Name
}

// Is reports whether target is ErrInvalidTimezone.
func (e *InvalidTimezoneError) Is(target error) bool {
	return target == ErrInvalidTimezone
}

// TimeResult is the current time in a named zone.
type TimeResult struct {
	Timezone string `json:"timezone"`
	Datetime string `json:"datetime"`
	IsDST    bool   `json:"is_dst"`
}

// Clock reports wall-clock time in IANA zones.
type Clock struct {
	defaultZone *time.Location
	now         func() time.Time
}

// New returns a Clock whose empty zone name resolves to defaultZone.
// An empty defaultZone means the zone detected on the host.
func New(defaultZone string) (*Clock, error) {
	if defaultZone == "" {
		defaultZone = LocalZoneName()
	}
	loc, err := LoadLocation(defaultZone)
	if err != nil {
		return nil, err
	}
	return &Clock{defaultZone: loc, now: time.Now}, nil
}

// WithNow returns a copy of c that reads the time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

// DefaultZone returns the zone used when no name is given.
func (c *Clock) DefaultZone() *time.Location {
	return c.defaultZone
}

// CurrentTime returns the current time in the named zone. An empty name
// selects the default zone.
func (c *Clock) CurrentTime(name string) (TimeResult, error) {
	loc := c.defaultZone
	if strings.TrimSpace(name) != "" {
		var err error
		if loc, err = LoadLocation(name); err != nil {
			return TimeResult{}, err
		}
	}
	t := c.now().In(loc).Truncate(time.Second)
	return TimeResult{
		Timezone: loc.String(),
		Datetime: t.Format(time.RFC3339),
		IsDST:    t.IsDST(),
	}, nil
}

// LoadLocation resolves an IANA zone name. "Local" is rejected so results
// never depend on the host configuration; use LocalZoneName for that.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, &InvalidTimezoneError{Name: name}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &InvalidTimezoneError{Name: name}
	}
	return loc, nil
}

// abbreviations maps zone abbreviations some hosts report instead of an
// IANA name.
var abbreviations = map[string]string{
	"UTC":  "UTC",
	"GMT":  "UTC",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"CET":  "Europe/Berlin",
	"CEST": "Europe/Berlin",
	"JST":  "Asia/Tokyo",
}

// LocalZoneName returns the IANA name of the host zone. It checks TZ, the
// /etc/localtime link and the local zone abbreviation, and falls back to
// UTC.
func LocalZoneName() string {
	return localZoneName(os.Getenv("TZ"), "/etc/localtime", time.Now().Zone)
}

func localZoneName(tz, localtime string, zone func() (string, int)) string {
	if tz = strings.TrimPrefix(strings.TrimSpace(tz), ":"); tz != "" {
		if _, err := LoadLocation(tz); err == nil {
			return tz
		}
	}

	if target, err := filepath.EvalSymlinks(localtime); err == nil {
		if _, name, ok := strings.Cut(filepath.ToSlash(target), "zoneinfo/"); ok {
			if _, err := LoadLocation(name); err == nil {
				return name
			}
		}
	}

	abbr, _ := zone()
	if name, ok := abbreviations[abbr]; ok {
		return name
	}
	return "UTC"
}
