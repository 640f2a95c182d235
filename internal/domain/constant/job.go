package constant

// JobClass groups jobs that run one at a time on the same worker.
const JobClass = "notification_service"

// JobKind identifies what a durable job does.
type JobKind string

const (
	JobCompleteItem   JobKind = "complete"
	JobRestoreAlarms  JobKind = "restore"
	JobSnoozeReminder JobKind = "snooze"
)
