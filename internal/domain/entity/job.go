package entity

import "time"

// Job is a persisted unit of deferred work.
type Job struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Class         string    `gorm:"column:class;index"`
	Kind          string    `gorm:"column:kind"`
	DedupeKey     string    `gorm:"column:dedupe_key;uniqueIndex"`
	Payload       string    `gorm:"column:payload;type:text"`
	Attempts      int       `gorm:"column:attempts"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;index"`
	LastError     string    `gorm:"column:last_error;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for the Job entity.
func (Job) TableName() string {
	return "work_jobs"
}
