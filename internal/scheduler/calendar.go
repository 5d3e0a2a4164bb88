package scheduler

import (
	"log"
	"time"

	"SwingScreener/internal/collector"

	"github.com/scmhub/calendar"
)

// tradingCalendar decides whether an exchange trades on a given day.
// With no calendar loaded it treats Monday to Friday as trading days.
type tradingCalendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

func calendarFor(market string) *tradingCalendar {
	mic, zone := "xnse", "Asia/Kolkata"
	if collector.IsUSMarket(market) {
		mic, zone = "xnys", "America/New_York"
	}

	if cal := calendar.GetCalendar(mic); cal != nil {
		return &tradingCalendar{cal: cal, loc: cal.Loc}
	}

	log.Printf("[WARN] no trading calendar for %s, using Mon-Fri", mic)
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return &tradingCalendar{loc: loc}
}

// IsTradingDay reports whether the exchange is open on t's local date.
func (tc *tradingCalendar) IsTradingDay(t time.Time) bool {
	if tc.loc != nil {
		t = t.In(tc.loc)
	}
	if tc.cal == nil {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(t)
}
