package entity

import "time"

// Recipient is a LINE user that receives reminder alerts.
type Recipient struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for the Recipient entity.
func (Recipient) TableName() string {
	return "line_recipients"
}
