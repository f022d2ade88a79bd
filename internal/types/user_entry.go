package types

import (
	"time"
)

// UserEntry is the durable record of an operator login. Rows are only ever
// written when a calibration session completes; roll numbers repeat across
// re-logins.
type UserEntry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RollNumber string     `gorm:"column:roll_number;size:50;not null;index" json:"roll_number"`
	Name       string     `gorm:"column:name;size:100;not null" json:"name"`
	Date       string     `gorm:"column:date;size:10" json:"date"`
	Time       string     `gorm:"column:time;size:8" json:"time"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login"`
}

func (UserEntry) TableName() string { return "user_entry" }
