package market

import "time"

// IST is the exchange-local time zone. All snapshot timestamps, expiry
// calculations and session windows use it.
var IST = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}()

// NowIST returns the current exchange-local time
func NowIST() time.Time {
	return time.Now().In(IST)
}

// Session window bounds, minutes from midnight (09:15 to 15:30)
const (
	SessionOpenMinute  = 9*60 + 15
	SessionCloseMinute = 15*60 + 30
)

// InSession reports whether t falls inside the trading session window
func InSession(t time.Time) bool {
	local := t.In(IST)
	mins := local.Hour()*60 + local.Minute()
	return mins >= SessionOpenMinute && mins <= SessionCloseMinute
}
