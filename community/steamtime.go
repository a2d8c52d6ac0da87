package community

import (
	"fmt"
	"strings"
	"time"
)

// Steam renders timestamps like "28 Jun, 2018 @ 1:23pm", dropping the year
// when it is the current one ("28 Jun @ 1:23pm").
var steamTimeLayouts = []string{
	"2 Jan, 2006 @ 3:04pm",
	"Jan 2, 2006 @ 3:04pm",
}

var steamTimeYearlessLayouts = []string{
	"2 Jan @ 3:04pm",
	"Jan 2 @ 3:04pm",
}

// DecodeSteamTime parses Steam's human-readable timestamp format.
func DecodeSteamTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range steamTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range steamTimeYearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			now := time.Now()
			return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized steam time format: %q", s)
}
