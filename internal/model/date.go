package model

import (
	"fmt"
	"time"
)

// PuzzleDateLayout is the calendar format of a PuzzleDate
const PuzzleDateLayout = "2006-01-02"

// PuzzleDate identifies one daily puzzle, e.g. "2024-01-31"
type PuzzleDate string

// PuzzleDateOf returns the puzzle date that t falls on in loc
func PuzzleDateOf(t time.Time, loc *time.Location) PuzzleDate {
	if loc == nil {
		loc = time.UTC
	}
	return PuzzleDate(t.In(loc).Format(PuzzleDateLayout))
}

// ParsePuzzleDate validates s and returns it as a PuzzleDate
func ParsePuzzleDate(s string) (PuzzleDate, error) {
	if _, err := time.Parse(PuzzleDateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return PuzzleDate(s), nil
}

// Validate checks that d is a well-formed calendar date
func (d PuzzleDate) Validate() error {
	_, err := ParsePuzzleDate(string(d))
	return err
}
