package models

import "time"

type BrandConfig struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name           string    `json:"name" gorm:"not null"`
	LogoURL        *string   `json:"logoUrl"`
	PrimaryColor   string    `json:"primaryColor" gorm:"type:varchar(16)"`
	AccentColor    string    `json:"accentColor" gorm:"type:varchar(16)"`
	BackgroundType string    `json:"backgroundType" gorm:"type:varchar(16)"` // rainbow, gradient, video, image
	BackgroundURL  *string   `json:"backgroundUrl"`
	CustomCSS      *string   `json:"customCss" gorm:"type:text"`
	IsActive       bool      `json:"isActive" gorm:"index"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type AdPlacement struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	BrandConfigID *string   `json:"brandConfigId" gorm:"type:varchar(64);index"`
	Placement     string    `json:"placement" gorm:"type:varchar(32);not null"`
	ContentURL    *string   `json:"contentUrl"`
	ContentType   string    `json:"contentType" gorm:"type:varchar(16);not null"` // image, video, html
	Width         *int      `json:"width"`
	Height        *int      `json:"height"`
	Opacity       Numeric   `json:"opacity" gorm:"type:numeric(3,2);not null"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}
