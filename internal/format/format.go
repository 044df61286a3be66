// Package format renders and parses the durations, money amounts and
// timestamps shown to users and written to exports.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration formats whole seconds as HH:MM:SS. Hours are not bounded and
// negative input renders as 00:00:00.
func Duration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// maxHours keeps hours*3600 plus the largest minute and second fields
// inside int64.
const maxHours = (math.MaxInt64 - 3599) / 3600

// ParseDuration accepts "H", "HH:MM" or "HH:MM:SS" and returns the number of
// seconds. Every field is plain digits and minutes and seconds must be below 60.
func ParseDuration(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var fields [3]int64
	for i, p := range parts {
		if !digits(p) {
			return 0, false
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n > maxHours {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		fields[i] = n
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// HHMM formats seconds as HH:MM, dropping the seconds.
func HHMM(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/3600, (secs%3600)/60)
}

// Hours renders seconds as a short decimal hour figure ("2.5h").
func Hours(secs int64) string {
	return fmt.Sprintf("%.1fh", float64(secs)/3600)
}

// Rate formats an amount in cents as "85,50 €".
func Rate(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}

// ParseRate reads "85", "85,5", "85,50", "85.50" or "85,50 €" into cents.
// Extra decimals beyond the second are truncated.
func ParseRate(text string) (int64, bool) {
	norm := strings.NewReplacer(" ", "", "€", "", ".", ",").Replace(strings.TrimSpace(text))
	if norm == "" {
		return 0, false
	}
	whole, frac, hasFrac := strings.Cut(norm, ",")
	if strings.Contains(frac, ",") {
		return 0, false
	}
	var euros int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		euros = n
	} else if !hasFrac {
		return 0, false
	}
	var cents int64
	if hasFrac {
		digits := (frac + "00")[:2]
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		if len(frac) > 2 {
			if _, err := strconv.ParseUint(frac[2:], 10, 64); err != nil {
				return 0, false
			}
		}
		cents = n
	}
	return euros*100 + cents, true
}

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp renders t in local time as "2006-01-02 15:04:05".
func Timestamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// ParseTimestamp is the inverse of Timestamp. "—" and empty input are
// treated as absent.
func ParseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == Missing {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, text, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExportStamp renders t as "[DD.MM.YY] - HH:MM" in local time.
func ExportStamp(t time.Time) string {
	lt := t.Local()
	return fmt.Sprintf("[%s] - %s", lt.Format("02.01.06"), lt.Format("15:04"))
}

// Missing is the placeholder for absent values in tables and CSV exports.
const Missing = "—"
