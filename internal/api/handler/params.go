package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// Today is the date alias accepted wherever a puzzle date is expected
const Today = "today"

// Calendar knows the current puzzle date
type Calendar interface {
	Today() model.PuzzleDate
}

// resolveDate returns today's date for "" or "today", else the parsed date
func resolveDate(cal Calendar, raw string) (model.PuzzleDate, error) {
	if raw == "" || raw == Today {
		return cal.Today(), nil
	}
	return model.ParsePuzzleDate(raw)
}

// queryInt reads an integer query parameter. A missing parameter yields def,
// or an error wrapping kind if required.
func queryInt(r *http.Request, name string, def int, required bool, kind error) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", kind, name)
		}
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", kind, name)
	}
	return n, nil
}
