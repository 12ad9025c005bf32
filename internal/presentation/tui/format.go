package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/regions/pkg/domain"
)

// FormatRegions lists the selectable regions as a numbered menu.
func FormatRegions(regions []string) string {
	var b strings.Builder
	b.WriteString("Regions:\n")
	for i, r := range regions {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, r)
	}
	return b.String()
}

// FormatState renders the region screen: the selected region and, depending
// on the state, a loading line, the error or the country list.
func FormatState(s domain.RegionState) string {
	var b strings.Builder

	if s.RegionSelected == "" {
		b.WriteString("No region selected.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Region: %s\n", s.RegionSelected)

	if msg, ok := s.ErrorMessage(); ok {
		fmt.Fprintf(&b, "Error: %s\n", msg)
		b.WriteString("Type 'retry' to try again or 'clear' to dismiss.\n")
		return b.String()
	}
	if s.Loading {
		b.WriteString("Loading countries...\n")
		return b.String()
	}
	if len(s.Countries) == 0 {
		b.WriteString("No countries.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Countries (%d):\n", len(s.Countries))
	for i, c := range s.Countries {
		fmt.Fprintf(&b, "  %2d) %s\n", i+1, c.Name)
	}
	return b.String()
}

// FormatCountry renders the details of c as plain text.
func FormatCountry(c domain.Country) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", c.Name)
	b.WriteString(strings.Repeat("=", len([]rune(c.Name))) + "\n")
	fmt.Fprintf(&b, "Capital:    %s\n", orDash(c.Capital))
	fmt.Fprintf(&b, "Population: %s\n", orDash(GroupDigits(c.Population)))
	fmt.Fprintf(&b, "Currencies: %s\n", orDash(strings.Join(c.CurrencyNames(), ", ")))
	fmt.Fprintf(&b, "Flag:       %s\n", orDash(c.Flag))
	return b.String()
}

// CountryMarkdown renders the details of c for the glamour renderer.
func CountryMarkdown(c domain.Country) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| **Capital** | %s |\n", orDash(c.Capital))
	fmt.Fprintf(&b, "| **Population** | %s |\n", orDash(GroupDigits(c.Population)))
	fmt.Fprintf(&b, "| **Currencies** | %s |\n", orDash(strings.Join(c.CurrencyNames(), ", ")))
	if c.Flag != "" {
		fmt.Fprintf(&b, "\n[Flag](%s)\n", c.Flag)
	}
	return b.String()
}

// GroupDigits inserts thousands separators into a decimal string.
// Anything that is not a plain run of digits is returned unchanged.
func GroupDigits(s string) string {
	if s == "" {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
