package catalog

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
)

var chapterNumber = regexp.MustCompile(`[0-9]+`)

// ChapterNumber returns the integer value of the first digit run in name,
// or 0 when there is none. Runs too large for an int clamp to math.MaxInt.
func ChapterNumber(name string) int {
	match := chapterNumber.FindString(name)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil {
		return 0
	}
	return n
}

// SortChapters returns a copy of chapters ordered by chapter number.
// Equal numbers keep their input order.
func SortChapters(chapters []Chapter) []Chapter {
	out := make([]Chapter, len(chapters))
	copy(out, chapters)
	sort.SliceStable(out, func(i, j int) bool {
		return ChapterNumber(out[i].Name) < ChapterNumber(out[j].Name)
	})
	return out
}
