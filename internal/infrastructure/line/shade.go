package line

import (
	"context"
	"fmt"
	"net/url"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/domain/repository"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"slices"
	"strconv"
	"sync"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Postback data keys carried by alert quick replies.
const (
	PostbackAction     = "action"
	PostbackReminderID = "reminder_id"
	PostbackItemID     = "item_id"
)

var actionLabels = map[constant.Action]string{
	constant.ActionOpen:     "開く",
	constant.ActionComplete: "完了",
	constant.ActionSnooze:   "スヌーズ",
}

// Shade posts alerts as LINE push messages to every registered recipient.
// A pushed message cannot be withdrawn, so Cancel only forgets the alert;
// its quick replies become stale and are rejected by the action dispatcher.
type Shade struct {
	client     *Client
	recipients repository.RecipientRepository
	log        logger.Logger

	mu      sync.Mutex
	visible map[uint64]dto.Alert
}

// NewShade creates a Shade. With a nil client alerts are only logged.
func NewShade(client *Client, recipients repository.RecipientRepository, log logger.Logger) *Shade {
	return &Shade{
		client:     client,
		recipients: recipients,
		log:        log,
		visible:    make(map[uint64]dto.Alert),
	}
}

// Post pushes the alert and records it as visible. An alert identical to the
// one already visible for the reminder is not pushed again.
func (s *Shade) Post(ctx context.Context, alert dto.Alert) error {
	s.mu.Lock()
	if shown, ok := s.visible[alert.ReminderID]; ok && sameAlert(shown, alert) {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Alert for reminder %d already visible", alert.ReminderID))
		return nil
	}
	s.visible[alert.ReminderID] = alert
	s.mu.Unlock()

	if s.client == nil {
		s.log.Info(fmt.Sprintf("Alert for reminder %d: %s", alert.ReminderID, alertText(alert)))
		return nil
	}

	recipients, err := s.recipients.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		s.log.Warn(fmt.Sprintf("No LINE recipients registered, alert for reminder %d not pushed", alert.ReminderID))
		return nil
	}

	msg := Message(alert)
	failed := 0
	for _, r := range recipients {
		if err := s.client.PushMessages(ctx, r.UserID, msg); err != nil {
			s.log.Error(fmt.Sprintf("Failed to push alert for reminder %d to %s", alert.ReminderID, r.UserID), err)
			failed++
		}
	}
	if failed == len(recipients) {
		s.mu.Lock()
		delete(s.visible, alert.ReminderID)
		s.mu.Unlock()
		return fmt.Errorf("%w: alert for reminder %d reached no recipient", appErrors.ErrLineAPI, alert.ReminderID)
	}
	return nil
}

// Cancel forgets the alert of a reminder.
func (s *Shade) Cancel(ctx context.Context, reminderID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visible, reminderID)
	return nil
}

func sameAlert(a, b dto.Alert) bool {
	return a.ItemID == b.ItemID && a.Title == b.Title && a.Body == b.Body && slices.Equal(a.Actions, b.Actions)
}

// Message renders an alert as a text message with one quick reply per action.
func Message(alert dto.Alert) linebot.SendingMessage {
	text := linebot.NewTextMessage(alertText(alert))
	if len(alert.Actions) == 0 {
		return text
	}
	buttons := make([]*linebot.QuickReplyButton, 0, len(alert.Actions))
	for _, a := range alert.Actions {
		label, ok := actionLabels[a]
		if !ok {
			label = a.String()
		}
		buttons = append(buttons, linebot.NewQuickReplyButton("", &linebot.PostbackAction{
			Label:       label,
			Data:        PostbackData(a, alert.ReminderID, alert.ItemID),
			DisplayText: label,
		}))
	}
	return text.WithQuickReplies(linebot.NewQuickReplyItems(buttons...))
}

// PostbackData encodes an action on an alert.
func PostbackData(action constant.Action, reminderID, itemID uint64) string {
	v := url.Values{}
	v.Set(PostbackAction, action.String())
	v.Set(PostbackReminderID, strconv.FormatUint(reminderID, 10))
	v.Set(PostbackItemID, strconv.FormatUint(itemID, 10))
	return v.Encode()
}

// ParsePostbackData decodes what PostbackData produced.
func ParsePostbackData(data string) (dto.ActionRequest, error) {
	v, err := url.ParseQuery(data)
	if err != nil {
		return dto.ActionRequest{}, fmt.Errorf("%w: %v", appErrors.ErrMalformedRequest, err)
	}
	action, ok := constant.ParseAction(v.Get(PostbackAction))
	if !ok {
		return dto.ActionRequest{}, fmt.Errorf("%w: %q", appErrors.ErrUnknownAction, v.Get(PostbackAction))
	}
	reminderID, err := strconv.ParseUint(v.Get(PostbackReminderID), 10, 64)
	if err != nil {
		return dto.ActionRequest{}, fmt.Errorf("%w: reminder_id: %v", appErrors.ErrMalformedRequest, err)
	}
	req := dto.ActionRequest{Action: action, ReminderID: reminderID}
	if raw := v.Get(PostbackItemID); raw != "" {
		if req.ItemID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return dto.ActionRequest{}, fmt.Errorf("%w: item_id: %v", appErrors.ErrMalformedRequest, err)
		}
	}
	return req, nil
}

func alertText(alert dto.Alert) string {
	if alert.Body == "" {
		return "⏰ " + alert.Title
	}
	return "⏰ " + alert.Title + "\n" + alert.Body
}
