package infra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"admission-gate/middleware/admission/domain"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Body   map[string]any
}

// fakeBotAPI responde às chamadas usadas pelo gate e grava o que recebeu.
type fakeBotAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	status string
	reply  func(method string) (int, string)
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))

		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{Method: method, Body: body})
		f.mu.Unlock()

		if f.reply != nil {
			code, out := f.reply(method)
			w.WriteHeader(code)
			_, _ = io.WriteString(w, out)
			return
		}

		switch method {
		case "sendMessage":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":77,"chat":{"id":123}}}`)
		case "getChatMember":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"status":"`+f.status+`"}}`)
		default:
			_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
		}
	})
}

func (f *fakeBotAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestBot(t *testing.T, f *fakeBotAPI) *BotClient {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewBotClient("TOKEN", WithBaseURL(srv.URL+"/"), WithOutboundRate(0, 0))
}

func TestBotClient_SendWithKeyboard(t *testing.T) {
	f := &fakeBotAPI{}
	c := newTestBot(t, f)

	ref, err := c.Send(context.Background(), domain.OutgoingMessage{
		ChatID:  123,
		Text:    "hi",
		ReplyTo: 5,
		Buttons: [][]domain.Button{{{Text: "open", URL: "https://t.me/chan"}}, {{Text: "check", CallbackData: "check_sub"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageRef{ChatID: 123, MessageID: 77}, ref)

	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].Method)
	assert.Equal(t, 5.0, calls[0].Body["reply_to_message_id"])
	kb := calls[0].Body["reply_markup"].(map[string]any)["inline_keyboard"].([]any)
	assert.Len(t, kb, 2)
}

func TestBotClient_Delete(t *testing.T) {
	f := &fakeBotAPI{}
	c := newTestBot(t, f)

	require.NoError(t, c.Delete(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 2}))

	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "deleteMessage", calls[0].Method)
	assert.Equal(t, 2.0, calls[0].Body["message_id"])
}

func TestBotClient_APIError(t *testing.T) {
	f := &fakeBotAPI{reply: func(string) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message to delete not found"}`
	}}
	c := newTestBot(t, f)

	err := c.Delete(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 2})
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.Contains(t, err.Error(), "message to delete not found")
}

func TestBotClient_MalformedResponse(t *testing.T) {
	f := &fakeBotAPI{reply: func(string) (int, string) { return http.StatusBadGateway, "<html>" }}
	c := newTestBot(t, f)

	_, err := c.ChatMemberStatus(context.Background(), "@chan", 1)
	require.Error(t, err)
	assert.False(t, IsBadRequest(err))
}

func TestChannelProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		reply   func(string) (int, string)
		want    domain.Membership
		wantErr bool
	}{
		{name: "member", status: "member", want: domain.Member},
		{name: "creator", status: "creator", want: domain.Member},
		{name: "restricted", status: "restricted", want: domain.Member},
		{name: "left", status: "left", want: domain.NonMember},
		{name: "kicked", status: "kicked", want: domain.NonMember},
		{name: "unknown status", status: "ghost", wantErr: true},
		{
			name:  "bad request means non member",
			reply: func(string) (int, string) { return 400, `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}` },
			want:  domain.NonMember,
		},
		{
			name:    "server error is ambiguous",
			reply:   func(string) (int, string) { return 500, `{"ok":false,"error_code":500,"description":"Internal"}` },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeBotAPI{status: tt.status, reply: tt.reply}
			p := ChannelProbe{Client: newTestBot(t, f), ChannelID: "@chan"}

			got, err := p.Probe(context.Background(), 9)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.MembershipUnknown, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			calls := f.recorded()
			require.Len(t, calls, 1)
			assert.Equal(t, "@chan", calls[0].Body["chat_id"])
		})
	}
}

func TestBotClient_OutboundRateWaitsRespectContext(t *testing.T) {
	f := &fakeBotAPI{}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewBotClient("TOKEN", WithBaseURL(srv.URL), WithOutboundRate(0.001, 1))

	require.NoError(t, c.Delete(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Delete(ctx, domain.MessageRef{ChatID: 1, MessageID: 2})
	require.Error(t, err)
	assert.Len(t, f.recorded(), 1)
}

func TestBreakerProbe_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	failing := domain.ProbeFunc(func(context.Context, domain.UserID) (domain.Membership, error) {
		calls++
		return domain.MembershipUnknown, assert.AnError
	})
	b := NewBreakerProbe(failing, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := b.Probe(context.Background(), 1)
		require.ErrorIs(t, err, assert.AnError)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Probe(context.Background(), 1)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestBreakerProbe_PassesResultThrough(t *testing.T) {
	ok := domain.ProbeFunc(func(context.Context, domain.UserID) (domain.Membership, error) {
		return domain.NonMember, nil
	})
	b := NewBreakerProbe(ok, BreakerSettings{})

	got, err := b.Probe(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.NonMember, got)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBotClient_MembershipLookupHasOwnBudget(t *testing.T) {
	f := &fakeBotAPI{status: "left"}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewBotClient("TOKEN", WithBaseURL(srv.URL), WithOutboundRate(0.001, 1), WithProbeRate(10, 1))

	// esgota o bucket de envios.
	require.NoError(t, c.Delete(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	got, err := ChannelProbe{Client: c, ChannelID: "@chan"}.Probe(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.NonMember, got)
}

func TestBotClient_SetWebhook(t *testing.T) {
	f := &fakeBotAPI{}
	c := newTestBot(t, f)

	require.NoError(t, c.SetWebhook(context.Background(), "https://bot.example/webhook", "s3cret"))
	require.NoError(t, c.SetWebhook(context.Background(), "https://bot.example/webhook", ""))

	calls := f.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "setWebhook", calls[0].Method)
	assert.Equal(t, "https://bot.example/webhook", calls[0].Body["url"])
	assert.Equal(t, "s3cret", calls[0].Body["secret_token"])
	assert.NotContains(t, calls[1].Body, "secret_token")
}
