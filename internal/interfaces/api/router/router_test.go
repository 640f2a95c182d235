package router

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"reminderengine/internal/application/dto"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/infrastructure/line"
	"reminderengine/internal/infrastructure/rpc"
	"reminderengine/internal/interfaces/api/handler"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"reminderengine/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu  sync.Mutex
	got []dto.ActionRequest
	err error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req dto.ActionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.err
}

type fakeBoot struct{ calls int }

func (f *fakeBoot) OnBoot(context.Context) error {
	f.calls++
	return nil
}

type fakeAlarms struct{ pending []dto.Trigger }

func (f *fakeAlarms) Schedule(context.Context, dto.Trigger) error   { return nil }
func (f *fakeAlarms) Reschedule(context.Context, dto.Trigger) error { return nil }
func (f *fakeAlarms) Cancel(context.Context, uint64) error          { return nil }
func (f *fakeAlarms) Pending() []dto.Trigger                        { return f.pending }

type fakeBridge struct{ ready bool }

func (f *fakeBridge) ItemOpened(context.Context, uint64)    {}
func (f *fakeBridge) ItemCompleted(context.Context, uint64) {}
func (f *fakeBridge) RestoreAlarms(context.Context)         {}
func (f *fakeBridge) ReloadStore(context.Context)           {}
func (f *fakeBridge) MarkReady(context.Context)             { f.ready = true }
func (f *fakeBridge) Detach()                               { f.ready = false }
func (f *fakeBridge) Ready() bool                           { return f.ready }

type fakeRecipients struct {
	mu         sync.Mutex
	registered []string
}

func (f *fakeRecipients) Register(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, userID)
	return nil
}

func (f *fakeRecipients) Unregister(context.Context, string) error { return nil }
func (f *fakeRecipients) Count(context.Context) (int, error)       { return 0, nil }

type testRouter struct {
	e          *echo.Echo
	dispatcher *fakeDispatcher
	boot       *fakeBoot
	recipients *fakeRecipients
	replies    chan string
}

const channelSecret = "test-secret"

func newTestRouter(t *testing.T, withLine bool) *testRouter {
	t.Helper()
	log := logger.Nop()
	tr := &testRouter{
		dispatcher: &fakeDispatcher{},
		boot:       &fakeBoot{},
		recipients: &fakeRecipients{},
		replies:    make(chan string, 8),
	}
	alarms := &fakeAlarms{pending: []dto.Trigger{{ReminderID: 1, ItemID: 2, DueTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Title: "Water plants"}}}
	bridge := &fakeBridge{ready: true}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.AlarmsFired.Inc()

	cfg := &Config{
		ActionHandler: handler.NewActionHandler(tr.dispatcher, tr.boot, alarms, bridge, time.Second, log),
		BridgeHandler: handler.NewBridgeHandler(context.Background(), rpc.NewServer(nil, rpc.NewNotifier(nil, log), log), log),
		Gatherer:      reg,
		Logger:        log,
	}
	if withLine {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			tr.replies <- string(body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{}"))
		}))
		t.Cleanup(api.Close)
		client, err := line.NewClient(channelSecret, "token", api.URL, log)
		require.NoError(t, err)
		cfg.LineHandler = handler.NewLineHandler(client, tr.recipients, tr.dispatcher, alarms, 20*time.Minute, time.Second, log)
	}
	tr.e = NewRouter(cfg)
	return tr
}

func (tr *testRouter) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	tr.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndAlarms(t *testing.T) {
	tr := newTestRouter(t, false)

	rec := tr.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","app_ready":true,"pending_alarms":1}`, rec.Body.String())

	rec = tr.do(http.MethodGet, "/alarms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var alarms []handler.AlarmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alarms))
	require.Len(t, alarms, 1)
	assert.Equal(t, "Water plants", alarms[0].Title)
}

func TestNotificationActions(t *testing.T) {
	tr := newTestRouter(t, false)

	rec := tr.do(http.MethodPost, "/notifications/7/complete?item_id=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, dto.ActionRequest{Action: constant.ActionComplete, ReminderID: 7, ItemID: 3}, tr.dispatcher.got[0])

	tr.dispatcher.err = appErrors.ErrStaleAction
	rec = tr.do(http.MethodPost, "/notifications/7/snooze", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"stale"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, tr.do(http.MethodPost, "/notifications/7/archive", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, tr.do(http.MethodPost, "/notifications/abc/open", "", nil).Code)
	assert.Len(t, tr.dispatcher.got, 2)
}

func TestBootAndMetrics(t *testing.T) {
	tr := newTestRouter(t, false)

	rec := tr.do(http.MethodPost, "/boot", "", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, tr.boot.calls)

	rec = tr.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reminder_alarm_fired_total 1")

	assert.Equal(t, http.StatusNotFound, tr.do(http.MethodPost, "/callback", "{}", nil).Code)
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestLineWebhook(t *testing.T) {
	tr := newTestRouter(t, true)
	body := `{"destination":"Ubot","events":[
		{"type":"follow","replyToken":"r1","timestamp":1,"source":{"type":"user","userId":"U1"}},
		{"type":"postback","replyToken":"r2","timestamp":2,"source":{"type":"user","userId":"U1"},
		 "postback":{"data":"` + line.PostbackData(constant.ActionSnooze, 7, 3) + `"}}
	]}`

	rec := tr.do(http.MethodPost, "/callback", body, map[string]string{"X-Line-Signature": sign(body)})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"U1"}, tr.recipients.registered)
	require.Len(t, tr.dispatcher.got, 1)
	assert.Equal(t, dto.ActionRequest{Action: constant.ActionSnooze, ReminderID: 7, ItemID: 3}, tr.dispatcher.got[0])

	first := <-tr.replies
	second := <-tr.replies
	assert.Contains(t, first, `"replyToken":"r1"`)
	assert.Contains(t, second, "20分後に再通知します。")

	rec = tr.do(http.MethodPost, "/callback", body, map[string]string{"X-Line-Signature": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
