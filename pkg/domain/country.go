package domain

// Currency is a currency used by a country.
type Currency struct {
	Name string `json:"name"`
}

// Country is a country as exposed by the countries API.
// Values are produced by the fetcher and treated as immutable afterwards.
type Country struct {
	Name       string     `json:"name"`
	Capital    string     `json:"capital"`
	Population string     `json:"population"`
	Currencies []Currency `json:"currencies"`
	Flag       string     `json:"flag"`
}

// EmptyCountry returns the sentinel meaning "no country selected".
// It carries a single unnamed currency so views can index it safely.
func EmptyCountry() Country {
	return Country{
		Currencies: []Currency{{Name: ""}},
	}
}

// IsEmpty reports whether c is the "no country selected" sentinel.
func (c Country) IsEmpty() bool {
	if c.Name != "" || c.Capital != "" || c.Population != "" || c.Flag != "" {
		return false
	}
	for _, cur := range c.Currencies {
		if cur.Name != "" {
			return false
		}
	}
	return true
}

// CurrencyNames returns the names of the country currencies, skipping blanks.
func (c Country) CurrencyNames() []string {
	names := make([]string, 0, len(c.Currencies))
	for _, cur := range c.Currencies {
		if cur.Name != "" {
			names = append(names, cur.Name)
		}
	}
	return names
}

// Clone returns a copy of c that shares no memory with it.
func (c Country) Clone() Country {
	out := c
	if c.Currencies != nil {
		out.Currencies = make([]Currency, len(c.Currencies))
		copy(out.Currencies, c.Currencies)
	}
	return out
}

// CloneCountries deep-copies a country list. A nil list becomes an empty one.
func CloneCountries(src []Country) []Country {
	out := make([]Country, len(src))
	for i, c := range src {
		out[i] = c.Clone()
	}
	return out
}
