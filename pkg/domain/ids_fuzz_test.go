//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseAccountID checks parsing never panics and valid accounts round-trip.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("0000000000000000000000000000000000000000000000000000000000000000")
	f.Add(AccountIDFromSeed("alice").String())
	f.Add("0x" + AccountIDFromSeed("bob").String())
	f.Add("'; DROP TABLE properties;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAccountID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseAccountID(a.String())
		if err != nil {
			t.Errorf("valid account failed round-trip: %v", err)
		}
		if roundTrip != a {
			t.Error("round-trip changed account value")
		}
	})
}

// FuzzParsePropertyID checks parsing never panics and ids round-trip.
func FuzzParsePropertyID(f *testing.F) {
	f.Add("0")
	f.Add("4294967295")
	f.Add("-1")
	f.Add("99999999999")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParsePropertyID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParsePropertyID(id.String())
		if err != nil || roundTrip != id {
			t.Errorf("property id %q did not round-trip", input)
		}
	})
}
