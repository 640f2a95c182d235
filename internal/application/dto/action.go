package dto

import "reminderengine/internal/domain/constant"

// ActionRequest is a user interaction with the alert of a reminder.
type ActionRequest struct {
	Action     constant.Action `json:"action"`
	ReminderID uint64          `json:"reminder_id"`
	ItemID     uint64          `json:"item_id,omitempty"`
}

// Alert is what the notification shade renders for one reminder.
type Alert struct {
	ReminderID uint64
	ItemID     uint64
	Title      string
	Body       string
	Actions    []constant.Action
}
