package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/scoutteam/internal/roster"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortByName     SortOrder = "name"
	SortByNumber   SortOrder = "number"
	SortByPosition SortOrder = "position"
)

// Valid reports whether o is a known sort order
func (o SortOrder) Valid() bool {
	switch o {
	case SortNone, SortByName, SortByNumber, SortByPosition:
		return true
	}
	return false
}

// sortAthletes sorts athletes in place. SortNone keeps page order.
func sortAthletes(athletes []roster.Athlete, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(athletes, func(i, j int) bool {
			return compareByName(athletes[i], athletes[j])
		})
	case SortByNumber:
		sort.SliceStable(athletes, func(i, j int) bool {
			return compareByNumber(athletes[i], athletes[j])
		})
	case SortByPosition:
		sort.SliceStable(athletes, func(i, j int) bool {
			pi, pj := strings.ToLower(athletes[i].Position), strings.ToLower(athletes[j].Position)
			if pi != pj {
				// athletes without a position go last
				if pi == "" || pj == "" {
					return pj == ""
				}
				return pi < pj
			}
			// If positions are equal, sort by number
			return compareByNumber(athletes[i], athletes[j])
		})
	}
}

func compareByName(i, j roster.Athlete) bool {
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}

// compareByNumber compares two athletes by jersey number
// Returns true if athlete i should come before athlete j
func compareByNumber(i, j roster.Athlete) bool {
	ni, errI := strconv.Atoi(i.Number.String())
	nj, errJ := strconv.Atoi(j.Number.String())

	// If both numbers are numeric, compare them
	if errI == nil && errJ == nil {
		if ni != nj {
			return ni < nj
		}
		return compareByName(i, j)
	}

	// If only one is numeric, put the numeric one first
	if errI == nil {
		return true
	}
	if errJ == nil {
		return false
	}

	// Neither is numeric ("", "TBD"): compare as text, then by name
	if i.Number != j.Number {
		return i.Number < j.Number
	}
	return compareByName(i, j)
}
