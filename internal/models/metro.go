package models

import (
	"fmt"
	"time"
)

type TicketType string

const (
	TicketTypeSingle  TicketType = "single"
	TicketTypeReturn  TicketType = "return"
	TicketTypeDayPass TicketType = "day_pass"
)

type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "active"
	TicketStatusUsed    TicketStatus = "used"
	TicketStatusExpired TicketStatus = "expired"
)

type MetroTicket struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID      string       `json:"userId" gorm:"type:varchar(64);index;not null"`
	User        *User        `json:"-" gorm:"foreignKey:UserID"`
	FromStation string       `json:"fromStation" gorm:"not null"`
	ToStation   string       `json:"toStation" gorm:"not null"`
	TicketType  TicketType   `json:"ticketType" gorm:"type:varchar(16);not null"`
	TotalAmount Numeric      `json:"totalAmount" gorm:"type:numeric(10,2);not null"`
	CoinsUsed   Numeric      `json:"coinsUsed" gorm:"type:numeric(10,2);not null"`
	CashAmount  Numeric      `json:"cashAmount" gorm:"type:numeric(10,2);not null"`
	Status      TicketStatus `json:"status" gorm:"type:varchar(16);not null"`
	QRCode      string       `json:"qrCode" gorm:"type:text"`
	ExpiresAt   *time.Time   `json:"expiresAt"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"index"`
}

type MetroPurchaseRequest struct {
	FromStation string     `json:"fromStation" binding:"required"`
	ToStation   string     `json:"toStation" binding:"required"`
	TicketType  TicketType `json:"ticketType" binding:"required"`
	// TotalAmount is optional; when present it must match the server fare.
	TotalAmount *Numeric `json:"totalAmount"`
	CoinsUsed   *Numeric `json:"coinsUsed" binding:"required"`
}

func (r *MetroPurchaseRequest) Validate() error {
	if r.FromStation == r.ToStation {
		return fmt.Errorf("from and to stations must differ")
	}
	switch r.TicketType {
	case TicketTypeSingle, TicketTypeReturn, TicketTypeDayPass:
	default:
		return fmt.Errorf("invalid ticket type: %s", r.TicketType)
	}
	if r.CoinsUsed == nil {
		return fmt.Errorf("coinsUsed is required")
	}
	if r.CoinsUsed.IsNegative() {
		return fmt.Errorf("coinsUsed must not be negative")
	}
	return nil
}

// TicketFare prices a ticket type as Base + PerStation * stations travelled.
type TicketFare struct {
	Type       TicketType `json:"type"`
	Base       Numeric    `json:"base"`
	PerStation Numeric    `json:"perStation"`
}

type MetroQuote struct {
	FromStation  string     `json:"fromStation"`
	ToStation    string     `json:"toStation"`
	TicketType   TicketType `json:"ticketType"`
	Stops        int        `json:"stops"`
	TotalAmount  Numeric    `json:"totalAmount"`
	MaxCoinsUsed Numeric    `json:"maxCoinsUsed"`
}
