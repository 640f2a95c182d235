package entity

import "time"

// Reminder is a due time bound to one item. The table belongs to the
// application's item store; the engine only reads it and rewrites reminder_time.
type Reminder struct {
	ID     uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID uint64    `gorm:"column:reminder_item;index"`
	Time   time.Time `gorm:"column:reminder_time;index"`
}

// TableName specifies the table name for the Reminder entity.
func (Reminder) TableName() string {
	return "todo_reminders"
}

// Item is the part of a to-do item the engine needs for presentation and completion.
type Item struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string     `gorm:"column:item_name"`
	Note          *string    `gorm:"column:item_note;type:text"`
	CompletedDate *time.Time `gorm:"column:item_completed_date"`
}

// TableName specifies the table name for the Item entity.
func (Item) TableName() string {
	return "todo_items"
}

// NoteText returns the note or an empty string.
func (i *Item) NoteText() string {
	if i.Note == nil {
		return ""
	}
	return *i.Note
}

// Completed reports whether the item carries a completion timestamp.
func (i *Item) Completed() bool {
	return i.CompletedDate != nil
}
