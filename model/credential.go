package model

import (
	"time"
)

type AutarcoCredential struct {
	ID        int64      `gorm:"column:id;primaryKey" json:"id"`
	Username  string     `gorm:"column:username" json:"username"`
	Password  string     `gorm:"column:password" json:"password"`
	Owner     string     `gorm:"column:owner" json:"owner"`
	CreatedAt *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (*AutarcoCredential) TableName() string {
	return "tbl_autarco_credentials"
}
