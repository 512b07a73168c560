package models

import (
	"fmt"
	"strings"
	"time"
)

const ageNotProvided = "Age not provided"

// AgeLabel renders a child's age from birth year and month, e.g. "3 years 2 months old".
// Missing or future birth dates return fallback, or "Age not provided".
func AgeLabel(birthYear, birthMonth int, fallback string, now time.Time) string {
	if fallback == "" {
		fallback = ageNotProvided
	}
	if birthYear <= 0 || birthMonth < 1 || birthMonth > 12 {
		return fallback
	}

	birth := time.Date(birthYear, time.Month(birthMonth), 1, 0, 0, 0, 0, now.Location())
	if birth.After(now) {
		return fallback
	}

	years := now.Year() - birthYear
	months := int(now.Month()) - birthMonth
	if months < 0 {
		years--
		months += 12
	}

	var parts []string
	if years > 0 {
		parts = append(parts, plural(years, "year"))
	}
	if months > 0 {
		parts = append(parts, plural(months, "month"))
	}
	if len(parts) == 0 {
		return "Less than one month old"
	}
	return strings.Join(parts, " ") + " old"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// AgeLabel renders the child's age, preferring birth data over the free-text age.
func (c Child) AgeLabel(now time.Time) string {
	return AgeLabel(c.BirthYear, c.BirthMonth, c.Age, now)
}
