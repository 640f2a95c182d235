package constant

// Flag namespaces in the durable registry.
const (
	NamespaceNotification   = "notification"
	NamespaceSnooze         = "snooze"
	NamespaceCompletedItems = "completed_items"
	NamespaceCallback       = "callback"

	// CallbackHandleKey is the only key in NamespaceCallback.
	CallbackHandleKey = "handle"
)

// Bridge callback method names (engine -> application).
const (
	CallbackItemOpened    = "notification_callback"
	CallbackItemCompleted = "complete_item"
	CallbackRestoreAlarms = "restore_alarms"
	CallbackReloadStore   = "reload_db"
)

// Bridge request method names (application -> engine).
const (
	MethodSetReminder    = "set_reminder"
	MethodUpdateReminder = "update_reminder"
	MethodDeleteReminder = "delete_reminder"
	MethodInit           = "init"
	MethodReady          = "ready"
)
