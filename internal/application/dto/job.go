package dto

import "time"

// CompleteItemPayload is the payload of a CompleteItem job.
type CompleteItemPayload struct {
	ItemID uint64 `json:"item_id"`
}

// SnoozeReminderPayload is the payload of a SnoozeReminder job.
type SnoozeReminderPayload struct {
	ReminderID uint64    `json:"reminder_id"`
	At         time.Time `json:"at"`
}
