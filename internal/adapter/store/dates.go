package store

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.ngs.io/wave-energy/internal/domain"
)

// DateKeySegment is the position of the date key in dot-separated grid file
// names, e.g. "multi_reanal.glo_30m_ext.hs.199001.grb2".
const DateKeySegment = 3

// DiscoverDateKeys lists the regular files in dir and returns the distinct
// date keys found at the given dot-separated segment of their names, in
// ascending order.
//
// A name contributes a key only if it has that segment and the segment is
// made of ASCII digits; every other file is ignored.
func DiscoverDateKeys(dir string, segment int) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", domain.ErrDateDiscovery, dir, err)
	}

	seen := make(map[int]bool)
	keys := make([]int, 0)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		key, ok := dateKeyFromName(entry.Name(), segment)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrDateDiscovery, dir)
	}

	slices.Sort(keys)
	return keys, nil
}

// dateKeyFromName extracts a digits-only date key from a file name.
func dateKeyFromName(name string, segment int) (int, bool) {
	parts := strings.Split(name, ".")
	if segment < 0 || segment >= len(parts) {
		return 0, false
	}
	s := parts[segment]
	if !isDigits(s) {
		return 0, false
	}
	key, err := strconv.Atoi(s)
	if err != nil {
		// Too many digits to fit an int.
		return 0, false
	}
	return key, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FilterDateKeys keeps the keys within [from, to]. A zero bound is open.
func FilterDateKeys(keys []int, from, to int) []int {
	out := make([]int, 0, len(keys))
	for _, k := range keys {
		if from != 0 && k < from {
			continue
		}
		if to != 0 && k > to {
			continue
		}
		out = append(out, k)
	}
	return out
}
