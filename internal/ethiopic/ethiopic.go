// Package ethiopic converts Gregorian civil dates to their Ethiopian
// calendar representation. The conversion goes through the Julian Day
// Number, so it is exact for any date either calendar can express.
//
// The result is display metadata only: scheduling always runs on the
// Gregorian date, and the Ethiopic form attached to an appointment is
// frozen at creation time.
package ethiopic

import (
	"fmt"
	"time"
)

// Date is the Ethiopian representation of a single civil day.
type Date struct {
	Day       int    `json:"day"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	MonthName string `json:"month_name"`
	Display   string `json:"display"`
}

// Amete Mihret epoch as a Julian Day Number.
const epochJDN = 1723856

var monthNames = [13]string{
	"Meskerem", "Tikimt", "Hidar", "Tahsas", "Tir", "Yekatit",
	"Megabit", "Miyazya", "Ginbot", "Sene", "Hamle", "Nehase", "Pagume",
}

// ToEthiopic converts a Gregorian date in YYYY-MM-DD form. It fails only
// on unparseable input; every real calendar date converts.
func ToEthiopic(gregorian string) (Date, error) {
	t, err := time.Parse("2006-01-02", gregorian)
	if err != nil {
		return Date{}, fmt.Errorf("parse gregorian date %q: %w", gregorian, err)
	}
	return FromTime(t), nil
}

// FromTime converts the civil date of t (its calendar day, location as given).
func FromTime(t time.Time) Date {
	jdn := gregorianJDN(t.Year(), int(t.Month()), t.Day())

	delta := jdn - epochJDN
	cycle := delta / 1461 // 4-year cycles of 1461 days since the epoch
	r := delta % 1461
	n := r%365 + 365*(r/1460)

	year := 4*cycle + r/365 - r/1460
	month := n/30 + 1
	day := n%30 + 1

	// The 13th month holds the intercalary days; anything past it rolls
	// into Meskerem of the next year.
	if month > 13 {
		month = 1
		year++
	}

	name := monthNames[month-1]
	return Date{
		Day:       day,
		Month:     month,
		Year:      year,
		MonthName: name,
		Display:   fmt.Sprintf("%s %d, %d", name, day, year),
	}
}

// gregorianJDN is the standard proleptic-Gregorian to JDN conversion.
func gregorianJDN(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}
