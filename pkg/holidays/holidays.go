// Package holidays computes Brazilian national holidays, fixed and
// Easter-relative.
package holidays

import (
	"sort"
	"time"
)

type Holiday struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

type fixed struct {
	month time.Month
	day   int
	name  string
	since int
}

var fixedHolidays = []fixed{
	{time.January, 1, "Confraternização Universal", 0},
	{time.April, 21, "Tiradentes", 0},
	{time.May, 1, "Dia do Trabalho", 0},
	{time.September, 7, "Independência do Brasil", 0},
	{time.October, 12, "Nossa Senhora Aparecida", 0},
	{time.November, 2, "Finados", 0},
	{time.November, 15, "Proclamação da República", 0},
	{time.November, 20, "Dia Nacional de Zumbi e da Consciência Negra", 2024},
	{time.December, 25, "Natal", 0},
}

type movable struct {
	offset int
	name   string
}

var easterRelative = []movable{
	{-48, "Carnaval"},
	{-47, "Carnaval"},
	{-2, "Sexta-feira Santa"},
	{0, "Páscoa"},
	{60, "Corpus Christi"},
}

// Easter returns Easter Sunday for year using the anonymous Gregorian
// (Meeus/Jones/Butcher) algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ForYear lists the holidays of year sorted by date.
func ForYear(year int) []Holiday {
	out := make([]Holiday, 0, len(fixedHolidays)+len(easterRelative))
	for _, f := range fixedHolidays {
		if year < f.since {
			continue
		}
		out = append(out, Holiday{
			Date: time.Date(year, f.month, f.day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
			Name: f.name,
		})
	}

	easter := Easter(year)
	for _, m := range easterRelative {
		out = append(out, Holiday{
			Date: easter.AddDate(0, 0, m.offset).Format(time.DateOnly),
			Name: m.name,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Lookup returns the holiday on date (YYYY-MM-DD), if any. Malformed dates
// are never holidays.
func Lookup(date string) (Holiday, bool) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return Holiday{}, false
	}
	for _, h := range ForYear(t.Year()) {
		if h.Date == date {
			return h, true
		}
	}
	return Holiday{}, false
}

func IsHoliday(date string) bool {
	_, ok := Lookup(date)
	return ok
}
