package car

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// VIN: 17 chars over [A-HJ-NPR-Z0-9]; I, O and Q are excluded by the standard.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// Car is the GORM model for the cars table.
//
// Version is bumped by the repository on every successful save; it is the
// authority for optimistic concurrency. VIN is stored canonical (trimmed,
// upper-case) and carries a unique index.
type Car struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Make            string    `gorm:"size:64;not null" json:"make"`
	Model           string    `gorm:"size:128;not null" json:"model"`
	ManufactureYear int       `gorm:"column:manufacture_year;not null" json:"manufactureYear"`
	VIN             string    `gorm:"column:vin;size:17;not null;uniqueIndex:uk_cars_vin" json:"vin"`
	OdometerKm      *int64    `gorm:"column:odometer_km" json:"odometerKm"`
	Version         int       `gorm:"column:row_version;not null;default:0" json:"version"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Car) TableName() string { return "cars" }

// BeforeSave canonicalizes string fields on every insert path, so a row can
// never be persisted with a non-canonical VIN regardless of which caller
// built it.
func (c *Car) BeforeSave(*gorm.DB) error {
	c.normalize()
	return nil
}

func (c *Car) normalize() {
	c.VIN = NormalizeVIN(c.VIN)
	c.Make = strings.TrimSpace(c.Make)
	c.Model = strings.TrimSpace(c.Model)
}

// NormalizeVIN returns the canonical form of a raw VIN: trimmed, upper-case.
// Interior code may assume VINs are canonical; callers taking external input
// must normalize at the boundary.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidVIN reports whether vin (already canonical) matches the VIN alphabet
// and length.
func ValidVIN(vin string) bool {
	return vinPattern.MatchString(vin)
}
