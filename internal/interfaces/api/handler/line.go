package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reminderengine/internal/application/service"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/infrastructure/line"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Text commands understood in chat.
const (
	commandHowToUse = "使い方"
	commandList     = "一覧"
)

// LineHandler handles incoming LINE webhook events.
type LineHandler struct {
	lineClient       *line.Client // Use the wrapper
	recipientService service.RecipientService
	dispatcher       service.ActionDispatcher
	alarms           service.AlarmScheduler
	snoozeDelay      time.Duration
	timeout          time.Duration
	log              logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(
	lineClient *line.Client,
	recipientService service.RecipientService,
	dispatcher service.ActionDispatcher,
	alarms service.AlarmScheduler,
	snoozeDelay time.Duration,
	timeout time.Duration,
	log logger.Logger,
) *LineHandler {
	return &LineHandler{
		lineClient:       lineClient,
		recipientService: recipientService,
		dispatcher:       dispatcher,
		alarms:           alarms,
		snoozeDelay:      snoozeDelay,
		timeout:          timeout,
		log:              log,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	for _, event := range events {
		h.log.Info(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeMessage:
			h.handleMessageEvent(ctx, event)
		case linebot.EventTypeFollow:
			h.handleFollowEvent(ctx, event)
		case linebot.EventTypeUnfollow:
			h.handleUnfollowEvent(ctx, event)
		case linebot.EventTypePostback:
			h.handlePostbackEvent(ctx, event)
		default:
			h.log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

// handleFollowEvent registers the follower as an alert recipient.
func (h *LineHandler) handleFollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info(fmt.Sprintf("User %s followed the bot.", userID))

	if err := h.recipientService.Register(ctx, userID); err != nil {
		h.replyWithError(ctx, event.ReplyToken, "通知先の登録に失敗しました。")
		return
	}
	h.reply(ctx, event.ReplyToken, linebot.NewTextMessage("リマインダーの通知をこのトークにお送りします。使い方を知りたい場合「使い方」と入力してください。"))
}

// handleUnfollowEvent stops sending alerts to the user.
func (h *LineHandler) handleUnfollowEvent(ctx context.Context, event *linebot.Event) {
	userID := event.Source.UserID
	h.log.Info(fmt.Sprintf("User %s unfollowed or blocked the bot.", userID))

	// No reply possible for unfollow events; the service logs failures.
	_ = h.recipientService.Unregister(ctx, userID)
}

// handleMessageEvent answers the chat commands.
func (h *LineHandler) handleMessageEvent(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}
	switch strings.TrimSpace(message.Text) {
	case commandHowToUse:
		h.sendHowToUse(ctx, event.ReplyToken)
	case commandList:
		h.sendAlarmList(ctx, event.ReplyToken)
	default:
		h.log.Debug(fmt.Sprintf("Ignoring text message from %s", event.Source.UserID))
	}
}

// handlePostbackEvent routes a quick reply tapped on an alert.
func (h *LineHandler) handlePostbackEvent(ctx context.Context, event *linebot.Event) {
	data := event.Postback.Data
	h.log.Info(fmt.Sprintf("Received postback from %s: data=%s", event.Source.UserID, data))

	req, err := line.ParsePostbackData(data)
	if err != nil {
		h.log.Warn(fmt.Sprintf("Ignoring malformed postback %q: %v", data, err))
		h.replyWithError(ctx, event.ReplyToken, "無効な操作です。")
		return
	}

	err = h.dispatcher.Dispatch(ctx, req)
	switch {
	case errors.Is(err, appErrors.ErrStaleAction):
		h.replyWithError(ctx, event.ReplyToken, "このリマインダーは既に処理されています。")
	case err != nil:
		h.log.Error(fmt.Sprintf("Failed to handle %s on reminder %d", req.Action, req.ReminderID), err)
		h.replyWithError(ctx, event.ReplyToken, "操作に失敗しました。もう一度お試しください。")
	default:
		h.reply(ctx, event.ReplyToken, linebot.NewTextMessage(h.confirmation(req.Action)))
	}
}

func (h *LineHandler) confirmation(action constant.Action) string {
	switch action {
	case constant.ActionComplete:
		return "完了にしました。"
	case constant.ActionSnooze:
		return fmt.Sprintf("%d分後に再通知します。", int(h.snoozeDelay.Minutes()))
	case constant.ActionOpen:
		return "アプリで開きます。"
	}
	return "通知を閉じました。"
}

// --- Helper methods for message handling ---

func (h *LineHandler) sendHowToUse(ctx context.Context, replyToken string) {
	howToUse := `リマインドの時刻になると、このトークに通知が届きます。

通知のボタンから「完了」「スヌーズ」「開く」を選べます。
「一覧」と入力すると、予定されている通知を確認できます。`

	quickReply := linebot.NewQuickReplyItems(
		linebot.NewQuickReplyButton("", linebot.NewMessageAction(commandList, commandList)),
	)
	h.reply(ctx, replyToken, linebot.NewTextMessage(howToUse).WithQuickReplies(quickReply))
}

func (h *LineHandler) sendAlarmList(ctx context.Context, replyToken string) {
	pending := h.alarms.Pending()
	if len(pending) == 0 {
		h.reply(ctx, replyToken, linebot.NewTextMessage("現在予定されている通知はありません"))
		return
	}

	var builder strings.Builder
	for _, t := range pending {
		builder.WriteString(fmt.Sprintf("%s \n%s\n\n", t.DueTime.Local().Format("2006/01/02 15:04"), t.Title))
	}
	h.reply(ctx, replyToken, linebot.NewTextMessage(strings.TrimSuffix(builder.String(), "\n\n")))
}

func (h *LineHandler) reply(ctx context.Context, replyToken string, messages ...linebot.SendingMessage) {
	if err := h.lineClient.SendMessages(ctx, replyToken, messages...); err != nil {
		h.log.Error("Failed to send reply message", err)
	}
}

// replyWithError sends a generic error message.
func (h *LineHandler) replyWithError(ctx context.Context, replyToken, userMessage string) {
	if err := h.lineClient.SendMessages(ctx, replyToken, linebot.NewTextMessage(userMessage)); err != nil {
		h.log.Error(fmt.Sprintf("Failed to send error reply message: %s", userMessage), err)
	}
}
