package car

import (
	"strings"
	"unicode/utf8"
)

// Group selects which subset of field rules applies to a mutation.
type Group int

const (
	GroupCreate Group = iota // full record, version assigned by the store
	GroupUpdate              // full replace, client presents current version
	GroupPatch               // partial, only year/odometer may change
)

const (
	msgNotBlank    = "must not be blank"
	msgMakeTooLong = "size must be at most 64"
	msgModelLong   = "size must be at most 128"
	msgYearMin     = "must be greater than or equal to 1886"
	msgVINInvalid  = "VIN invalid (17 chars, no I/O/Q)"
	msgOdoNegative = "must be greater than or equal to 0"
)

// Validate checks candidate c against the rules of group g and returns every
// violation found. c is expected to be canonical already (see normalize);
// violations are reported with the JSON field path.
func Validate(g Group, c *Car) []Violation {
	var out []Violation

	if g == GroupCreate || g == GroupUpdate {
		switch {
		case strings.TrimSpace(c.Make) == "":
			out = append(out, Violation{Path: "make", Message: msgNotBlank})
		case utf8.RuneCountInString(c.Make) > 64:
			out = append(out, Violation{Path: "make", Message: msgMakeTooLong})
		}
		switch {
		case c.Model == "":
			out = append(out, Violation{Path: "model", Message: msgNotBlank})
		case utf8.RuneCountInString(c.Model) > 128:
			out = append(out, Violation{Path: "model", Message: msgModelLong})
		}
		if c.ManufactureYear < 1886 {
			out = append(out, Violation{Path: "manufactureYear", Message: msgYearMin})
		}
	}

	// VIN format is checked in every group: it is immutable after create, so
	// a patched row must still carry a well-formed canonical VIN.
	if !ValidVIN(c.VIN) {
		out = append(out, Violation{Path: "vin", Message: msgVINInvalid})
	}

	if c.OdometerKm != nil && *c.OdometerKm < 0 {
		out = append(out, Violation{Path: "odometerKm", Message: msgOdoNegative})
	}

	return out
}
