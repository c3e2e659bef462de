package util

import "time"

var loc = time.FixedZone("Asia/Kolkata", 5*3600+1800)

func SetLocation(l *time.Location) {
	loc = l
}

func Location() *time.Location {
	return loc
}

func Now() time.Time {
	return time.Now().In(loc)
}

// DayRange returns [start, end) of the calendar day containing t.
func DayRange(t time.Time) (start, end time.Time) {
	y, m, d := t.In(loc).Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1)
	return
}

// MonthRange returns [start, end) of the calendar month containing t.
func MonthRange(t time.Time) (start, end time.Time) {
	y, m, _ := t.In(loc).Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0)
	return
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from a to b in the configured zone.
func DaysBetween(a, b time.Time) int {
	as, _ := DayRange(a)
	bs, _ := DayRange(b)
	ay, am, ad := as.Date()
	by, bm, bd := bs.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
