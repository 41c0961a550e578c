package model

import (
	"time"

	"github.com/google/uuid"
)

type UserTier struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Kind            string     `gorm:"type:varchar(20);not null;default:'free'"`
	FreeTrialExpiry *time.Time `gorm:""`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (UserTier) TableName() string {
	return "user_tiers"
}
