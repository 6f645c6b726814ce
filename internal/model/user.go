package model

import "time"

type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Username  string `gorm:"uniqueIndex;size:32;not null"`
	Password  string `gorm:"size:255;not null"`
	Email     string `gorm:"uniqueIndex;size:64;not null"`
	Avatar    string `gorm:"size:255"`
	Admin     bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
