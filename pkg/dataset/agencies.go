package dataset

import (
	"encoding/json"
	"fmt"
)

// Agencies is the flat prefix-to-name lookup extracted from the ISBN range
// registry. Keys are normalized prefixes (978 -> leading 0, 979 -> leading
// 1), values read "country/language/agency".
type Agencies map[string]string

// ParseAgencies decodes the agency lookup document.
func ParseAgencies(data []byte) (Agencies, error) {
	var a Agencies
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse agencies: %w", err)
	}
	return a, nil
}

// Lookup returns the agency registered at exactly this prefix.
func (a Agencies) Lookup(prefix string) (string, bool) {
	name, ok := a[prefix]
	return name, ok
}

// LongestMatch returns the agency whose prefix is the longest prefix of the
// given string, and that prefix. Used to name arbitrary regions: a cell
// deeper than any registered prefix still belongs to its enclosing agency.
func (a Agencies) LongestMatch(s string) (prefix, name string, ok bool) {
	for l := len(s); l >= 1; l-- {
		if n, found := a[s[:l]]; found {
			return s[:l], n, true
		}
	}
	return "", "", false
}
