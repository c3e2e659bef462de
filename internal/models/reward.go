package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type RewardType string

const (
	RewardTypeSpotify         RewardType = "spotify"
	RewardTypeMovieTicket     RewardType = "movie_ticket"
	RewardTypeOTTSubscription RewardType = "ott_subscription"
)

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusConfirmed RedemptionStatus = "confirmed"
	RedemptionStatusDelivered RedemptionStatus = "delivered"
)

type RewardRedemption struct {
	ID             string           `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID         string           `json:"userId" gorm:"type:varchar(64);index;not null"`
	User           *User            `json:"-" gorm:"foreignKey:UserID"`
	RewardType     RewardType       `json:"rewardType" gorm:"type:varchar(32);not null"`
	Provider       string           `json:"provider" gorm:"not null"`
	OriginalPrice  Numeric          `json:"originalPrice" gorm:"type:numeric(10,2);not null"`
	DiscountAmount Numeric          `json:"discountAmount" gorm:"type:numeric(10,2);not null"`
	FinalPrice     Numeric          `json:"finalPrice" gorm:"type:numeric(10,2);not null"`
	CoinsUsed      Numeric          `json:"coinsUsed" gorm:"type:numeric(10,2);not null"`
	Status         RedemptionStatus `json:"status" gorm:"type:varchar(16);not null"`
	RedemptionCode string           `json:"redemptionCode"`
	Metadata       datatypes.JSON   `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time        `json:"createdAt" gorm:"index"`
}

// RewardOffer is a catalog entry. Prices are derived, never client supplied.
type RewardOffer struct {
	ID              string     `json:"id"`
	Type            RewardType `json:"type"`
	Provider        string     `json:"provider"`
	Title           string     `json:"title"`
	Duration        string     `json:"duration"`
	Description     string     `json:"description"`
	OriginalPrice   Numeric    `json:"originalPrice"`
	DiscountPercent int64      `json:"discountPercent"`
	CoinsRequired   Numeric    `json:"coinsRequired"`
}

func (o RewardOffer) DiscountAmount() Numeric {
	d := o.OriginalPrice.Decimal.Mul(NumericFromInt(o.DiscountPercent).Decimal).Div(NumericFromInt(100).Decimal)
	return NewNumeric(d)
}

func (o RewardOffer) FinalPrice() Numeric {
	return o.OriginalPrice.Sub(o.DiscountAmount())
}

type RedeemRewardRequest struct {
	RewardID       string          `json:"rewardId"`
	RewardType     RewardType      `json:"rewardType"`
	Provider       string          `json:"provider"`
	OriginalPrice  *Numeric        `json:"originalPrice"`
	DiscountAmount *Numeric        `json:"discountAmount"`
	FinalPrice     *Numeric        `json:"finalPrice"`
	CoinsUsed      *Numeric        `json:"coinsUsed"`
	Metadata       json.RawMessage `json:"metadata"`
}

func (r *RedeemRewardRequest) Validate() error {
	if r.RewardID == "" && (r.RewardType == "" || r.Provider == "") {
		return fmt.Errorf("rewardId or rewardType and provider are required")
	}
	if r.CoinsUsed != nil && r.CoinsUsed.IsNegative() {
		return fmt.Errorf("coinsUsed must not be negative")
	}
	return nil
}
