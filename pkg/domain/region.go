package domain

import (
	"fmt"
	"strings"
)

// Fixed region labels offered to the user.
const (
	RegionAsia   = "Asia"
	RegionEurope = "Europe"
)

// Regions returns the selectable region labels in display order.
func Regions() []string {
	return []string{RegionAsia, RegionEurope}
}

// ParseRegion normalizes user input into one of the known region labels.
func ParseRegion(s string) (string, error) {
	clean := strings.TrimSpace(s)
	for _, r := range Regions() {
		if strings.EqualFold(clean, r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}
