//go:build go1.18

package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzParseFlagID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
//
// Justification: Flag IDs arrive from the intake API and the admin CLI.
// Fuzz tests verify no panics and that accepted IDs round-trip.
func FuzzParseFlagID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE digest_queue;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseFlagID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("nil flag ID was accepted")
		}
		roundTrip, err := ParseFlagID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseOpaqueIDs ensures family, subject and guardian IDs share one
// validation rule.
//
// Justification: Inconsistent validation across ID types would let a
// guardian ID through where the family ID for the same value is rejected.
func FuzzParseOpaqueIDs(f *testing.F) {
	f.Add("fam-1")
	f.Add("")
	f.Add("   ")
	f.Add(strings.Repeat("g", maxOpaqueIDLength+1))

	f.Fuzz(func(t *testing.T, input string) {
		fam, errFamily := ParseFamilyID(input)
		_, errSubject := ParseSubjectID(input)
		_, errGuardian := ParseGuardianID(input)

		accepted := errFamily == nil
		if (errSubject == nil) != accepted || (errGuardian == nil) != accepted {
			t.Error("inconsistent parsing across ID types")
		}
		if accepted && string(fam) != strings.TrimSpace(string(fam)) {
			t.Error("accepted ID kept surrounding whitespace")
		}
	})
}
