package types

import (
	"time"
)

type MeasuredShaft struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   string    `gorm:"column:product_id;size:50;not null;uniqueIndex" json:"product_id"`
	RollNumber  string    `gorm:"column:roll_number;size:50;not null;index" json:"roll_number"`
	ShaftHeight float64   `gorm:"column:shaft_height" json:"shaft_height"`
	ShaftRadius float64   `gorm:"column:shaft_radius" json:"shaft_radius"`
	Timestamp   time.Time `gorm:"column:timestamp" json:"timestamp"`
}

func (MeasuredShaft) TableName() string { return "measured_shafts" }
