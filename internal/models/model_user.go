package models

import (
	"time"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/types"
)

// User is the slice of the platform user profile that billing reads
// (email) and writes (ProfileStatus).
type User struct {
	ID            string              `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Email         string              `gorm:"column:email;type:varchar(255)" json:"email"`
	ProfileStatus types.ProfileStatus `gorm:"column:profile_status;type:varchar(32);not null;default:'incomplete'" json:"profile_status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (User) TableName() string { return "users" }
