package models

import (
	"time"

	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeEarning          TransactionType = "earning"
	TransactionTypeBonus            TransactionType = "bonus"
	TransactionTypeRedemption       TransactionType = "redemption"
	TransactionTypeMetroPayment     TransactionType = "metro_payment"
	TransactionTypeRewardRedemption TransactionType = "reward_redemption"
)

// Transaction is an append-only ledger entry. Spends carry a negative Amount.
type Transaction struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID        string          `json:"userId" gorm:"type:varchar(64);index;not null"`
	User          *User           `json:"-" gorm:"foreignKey:UserID"`
	Type          TransactionType `json:"type" gorm:"type:varchar(32);index;not null"`
	Amount        Numeric         `json:"amount" gorm:"type:numeric(10,2);not null"`
	BalanceAfter  Numeric         `json:"balanceAfter" gorm:"type:numeric(10,2);not null"`
	Description   string          `json:"description" gorm:"type:text;not null"`
	RelatedWalkID *string         `json:"relatedWalkId" gorm:"type:varchar(64)"`
	RelatedWalk   *WalkSession    `json:"-" gorm:"foreignKey:RelatedWalkID"`
	Metadata      datatypes.JSON  `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
}

// LedgerEvent is pushed to connected clients after a committed balance change.
type LedgerEvent struct {
	Type        string       `json:"type"`
	UserID      string       `json:"userId"`
	Balance     Numeric      `json:"balance"`
	Transaction *Transaction `json:"transaction,omitempty"`
	At          time.Time    `json:"at"`
}

const EventBalanceUpdate = "BALANCE_UPDATE"
