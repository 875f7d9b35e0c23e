// Package expiry implements NSE-style derivative expiry date and code
// calculation. Weekly index contracts expire on Tuesdays, monthly contracts
// on the last Tuesday of the month; a trading day rolls over after 15:00
// exchange-local time.
package expiry

import (
	"fmt"
	"strings"
	"time"
)

const rolloverHour = 15

// monthCodes maps months 1-9 to digits and Oct/Nov/Dec to O/N/D, per the
// broker's weekly symbol format.
var monthCodes = [13]string{"", "1", "2", "3", "4", "5", "6", "7", "8", "9", "O", "N", "D"}

// NextWeekly returns the next weekly expiry at or after now. If now is the
// expiry Tuesday but the session has closed, the following week is used.
func NextWeekly(now time.Time) time.Time {
	daysAhead := (int(time.Tuesday) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 && now.Hour() > rolloverHour {
		daysAhead = 7
	}
	return now.AddDate(0, 0, daysAhead)
}

// NextMonthly returns the next monthly expiry (last Tuesday of the month) at
// or after now, rolling into the next month once the current expiry has
// passed.
func NextMonthly(now time.Time) time.Time {
	lastTue := lastTuesday(now.Year(), now.Month(), now.Location())

	passed := afterDate(now, lastTue) ||
		(sameDate(now, lastTue) && now.Hour() > rolloverHour)
	if passed {
		next := now.AddDate(0, 1, 0)
		return lastTuesday(next.Year(), next.Month(), now.Location())
	}
	return lastTue
}

// Code renders the broker expiry code for a date. Monthly contracts (or any
// date that is its month's last Tuesday) use YYMMM, e.g. 26FEB; weekly
// contracts use YY<monthCode>DD, e.g. 26203.
func Code(date time.Time, forceMonthly bool) string {
	year := date.Format("06")

	if forceMonthly || sameDate(date, lastTuesday(date.Year(), date.Month(), date.Location())) {
		return year + strings.ToUpper(date.Format("Jan"))
	}
	return fmt.Sprintf("%s%s%02d", year, monthCodes[int(date.Month())], date.Day())
}

// lastTuesday finds the last Tuesday of a month
func lastTuesday(year int, month time.Month, loc *time.Location) time.Time {
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	delta := (int(lastDay.Weekday()) - int(time.Tuesday) + 7) % 7
	return lastDay.AddDate(0, 0, -delta)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// afterDate reports whether a falls on a later calendar date than b,
// ignoring the time of day
func afterDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
