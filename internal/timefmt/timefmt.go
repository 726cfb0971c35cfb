// Package timefmt converts between elapsed durations and the display strings
// used on the clock face, in result cells, and in TSV exports.
package timefmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// mmssPattern accepts "m:ss" and "m:ss.t" with minutes unbounded.
var mmssPattern = regexp.MustCompile(`^([0-9]+):([0-5]?[0-9](?:\.[0-9])?)$`)

// RoundTenth rounds seconds to the nearest tenth, the capture resolution.
func RoundTenth(sec float64) float64 {
	return math.Round(sec*10) / 10
}

// FormatClock renders an elapsed duration as "MM:SS.t" for the live clock.
// Negative inputs are clamped to zero.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalTenths := ms / 100
	tenths := totalTenths % 10
	totalSeconds := totalTenths / 10
	return fmt.Sprintf("%02d:%02d.%d", totalSeconds/60, totalSeconds%60, tenths)
}

// FormatSeconds renders a captured time as "M:SS.T" — one decimal place,
// seconds zero-padded to two digits, minutes unbounded.
func FormatSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	sec = RoundTenth(sec)
	mins := int(sec) / 60
	rem := sec - float64(mins*60)
	return fmt.Sprintf("%d:%04.1f", mins, rem)
}

// ParseSeconds parses a manually entered time. Accepted forms are "m:ss",
// "m:ss.t", and plain seconds ("94.5"). An empty string means "clear the
// cell" and yields (nil, nil). The result is rounded to a tenth.
func ParseSeconds(input string) (*float64, error) {
	t := strings.TrimSpace(input)
	if t == "" {
		return nil, nil
	}
	if m := mmssPattern.FindStringSubmatch(t); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing seconds %q: %w", m[2], err)
		}
		v := RoundTenth(float64(mins)*60 + secs)
		return &v, nil
	}
	s, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(s, 0) || math.IsNaN(s) || s < 0 {
		return nil, fmt.Errorf("invalid time %q: use m:ss.t (e.g. 2:34.5) or seconds (e.g. 94.5)", input)
	}
	v := RoundTenth(s)
	return &v, nil
}

// NowISO formats a timestamp the way captured cells store it.
func NowISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
