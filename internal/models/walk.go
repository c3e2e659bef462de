package models

import (
	"fmt"
	"time"
)

type WalkSession struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID        string     `json:"userId" gorm:"type:varchar(64);index;not null"`
	User          *User      `json:"-" gorm:"foreignKey:UserID"`
	StartTime     time.Time  `json:"startTime" gorm:"not null"`
	EndTime       *time.Time `json:"endTime"`
	Duration      *int       `json:"duration"` // whole minutes
	Steps         int64      `json:"steps" gorm:"not null"`
	Distance      Numeric    `json:"distance" gorm:"type:numeric(10,2);not null"`
	Earnings      Numeric    `json:"earnings" gorm:"type:numeric(10,2);not null"`
	Completed     bool       `json:"completed" gorm:"not null;index"`
	StartLocation *string    `json:"startLocation" gorm:"type:text"`
	EndLocation   *string    `json:"endLocation" gorm:"type:text"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"index"`
}

type StartWalkRequest struct {
	StartLocation *string `json:"startLocation"`
}

type CompleteWalkRequest struct {
	Steps       *int64  `json:"steps" binding:"required"`
	Distance    Numeric `json:"distance"`
	EndLocation *string `json:"endLocation"`
}

func (r *CompleteWalkRequest) Validate() error {
	if r.Steps == nil {
		return fmt.Errorf("steps is required")
	}
	if *r.Steps < 0 {
		return fmt.Errorf("steps must not be negative")
	}
	if r.Distance.IsNegative() {
		return fmt.Errorf("distance must not be negative")
	}
	return nil
}
