package input

import (
	"slices"
	"strings"
)

// StringSliceFlag is a flag.Value collecting targets from repeated flags and
// comma-separated lists. Blank entries and repeats are dropped.
type StringSliceFlag []string

func (s *StringSliceFlag) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *StringSliceFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(*s, v) {
			continue
		}
		*s = append(*s, v)
	}
	return nil
}
