package car

import "testing"

const testVIN = "1HGBH41JXMN109186"

func validCar() *Car {
	odo := int64(42000)
	return &Car{
		Make:            "Honda",
		Model:           "Civic",
		ManufactureYear: 2019,
		VIN:             testVIN,
		OdometerKm:      &odo,
	}
}

func hasViolation(vs []Violation, path string) bool {
	for _, v := range vs {
		if v.Path == path {
			return true
		}
	}
	return false
}

func TestValidateAcceptsValidCar(t *testing.T) {
	for _, g := range []Group{GroupCreate, GroupUpdate, GroupPatch} {
		if vs := Validate(g, validCar()); len(vs) != 0 {
			t.Fatalf("group %v: expected no violations, got %v", g, vs)
		}
	}
}

func TestValidateBlankMake(t *testing.T) {
	c := validCar()
	c.Make = "   "
	vs := Validate(GroupCreate, c)
	if !hasViolation(vs, "make") {
		t.Fatalf("expected make violation, got %v", vs)
	}
}

func TestValidateMakeLengthCountsRunes(t *testing.T) {
	c := validCar()
	c.Make = ""
	for i := 0; i < 64; i++ {
		c.Make += "é" // 2 bytes per rune
	}
	if vs := Validate(GroupCreate, c); hasViolation(vs, "make") {
		t.Fatalf("64-rune make rejected: %v", vs)
	}

	c.Make += "é"
	if vs := Validate(GroupCreate, c); !hasViolation(vs, "make") {
		t.Fatalf("65-rune make accepted")
	}
}

func TestValidateMakeTooLong(t *testing.T) {
	c := validCar()
	for len(c.Make) <= 64 {
		c.Make += "x"
	}
	vs := Validate(GroupUpdate, c)
	if !hasViolation(vs, "make") {
		t.Fatalf("expected make violation, got %v", vs)
	}
}

func TestValidateYearBeforeFirstCar(t *testing.T) {
	c := validCar()
	c.ManufactureYear = 1885
	vs := Validate(GroupCreate, c)
	if !hasViolation(vs, "manufactureYear") {
		t.Fatalf("expected manufactureYear violation, got %v", vs)
	}
}

func TestValidateYearSkippedOnPatchGroupButVINStillChecked(t *testing.T) {
	c := validCar()
	c.Make = ""
	c.Model = ""
	c.VIN = "BADVIN"
	vs := Validate(GroupPatch, c)
	if hasViolation(vs, "make") || hasViolation(vs, "model") {
		t.Fatalf("patch group must not check make/model, got %v", vs)
	}
	if !hasViolation(vs, "vin") {
		t.Fatalf("expected vin violation, got %v", vs)
	}
}

func TestValidateVINRejectsExcludedLetters(t *testing.T) {
	c := validCar()
	c.VIN = "1HGBH41JXMN10918O" // trailing O is not in the VIN alphabet
	vs := Validate(GroupCreate, c)
	if !hasViolation(vs, "vin") {
		t.Fatalf("expected vin violation, got %v", vs)
	}
}

func TestValidateNegativeOdometerAllGroups(t *testing.T) {
	for _, g := range []Group{GroupCreate, GroupUpdate, GroupPatch} {
		c := validCar()
		neg := int64(-1)
		c.OdometerKm = &neg
		vs := Validate(g, c)
		if !hasViolation(vs, "odometerKm") {
			t.Fatalf("group %v: expected odometerKm violation, got %v", g, vs)
		}
	}
}

func TestValidateNilOdometerIsFine(t *testing.T) {
	c := validCar()
	c.OdometerKm = nil
	if vs := Validate(GroupCreate, c); len(vs) != 0 {
		t.Fatalf("expected no violations, got %v", vs)
	}
}

func TestNormalizeVIN(t *testing.T) {
	if got := NormalizeVIN("  1hgbh41jxmn109186 "); got != testVIN {
		t.Fatalf("NormalizeVIN = %q, want %q", got, testVIN)
	}
}

func TestValidVIN(t *testing.T) {
	cases := []struct {
		vin  string
		want bool
	}{
		{testVIN, true},
		{"1hgbh41jxmn109186", false}, // lowercase is not canonical
		{"1HGBH41JXMN10918", false},  // 16 chars
		{"1HGBH41JXMN1091867", false},
		{"IHGBH41JXMN109186", false}, // leading I
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidVIN(tc.vin); got != tc.want {
			t.Errorf("ValidVIN(%q) = %v, want %v", tc.vin, got, tc.want)
		}
	}
}
