package types

import (
	"time"
)

// HousingTypes is the allowed value set for MeasuredHousing.HousingType.
// "sqaure" is a historical misspelling that shipped to clients; it stays.
var HousingTypes = []string{"housing", "oval", "sqaure", "angular"}

func ValidHousingType(t string) bool {
	for _, v := range HousingTypes {
		if t == v {
			return true
		}
	}
	return false
}

type MeasuredHousing struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     string    `gorm:"column:product_id;size:50;not null;uniqueIndex" json:"product_id"`
	RollNumber    string    `gorm:"column:roll_number;size:50;not null;index" json:"roll_number"`
	HousingType   string    `gorm:"column:housing_type;size:50" json:"housing_type"`
	HousingHeight float64   `gorm:"column:housing_height" json:"housing_height"`
	HousingRadius float64   `gorm:"column:housing_radius" json:"housing_radius"`
	HousingDepth  *float64  `gorm:"column:housing_depth" json:"housing_depth,omitempty"`
	Timestamp     time.Time `gorm:"column:timestamp" json:"timestamp"`
}

func (MeasuredHousing) TableName() string { return "measured_housings" }
