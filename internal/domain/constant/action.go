package constant

// Action is a user interaction with a live alert.
type Action string

const (
	// ActionOpen deep-links into the application for the item.
	ActionOpen Action = "open"
	// ActionComplete marks the item completed.
	ActionComplete Action = "complete"
	// ActionSnooze re-fires the reminder after the snooze delay.
	ActionSnooze Action = "snooze"
	// ActionDismiss is the alert being swiped away.
	ActionDismiss Action = "dismiss"
)

// ParseAction validates an action name coming from an alert surface.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionOpen, ActionComplete, ActionSnooze, ActionDismiss:
		return a, true
	}
	return "", false
}

func (a Action) String() string {
	return string(a)
}
