package entity

import "time"

// Flag is one durable lifecycle flag. Namespace and Key together identify it;
// every write touches exactly one row.
type Flag struct {
	Namespace string    `gorm:"column:namespace;primaryKey"`
	Key       string    `gorm:"column:flag_key;primaryKey"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Flag entity.
func (Flag) TableName() string {
	return "registry_flags"
}
