package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify_DirectMessage(t *testing.T) {
	ev := &Message{MessageID: 7, From: &User{ID: 42}, Chat: Chat{ID: -100}}

	id := Identify(ev)
	assert.True(t, id.OK())
	assert.Equal(t, UserID(42), id.User)
	assert.Equal(t, int64(-100), id.ChatID)
	assert.Equal(t, int64(7), id.ReplyTo)
}

func TestIdentify_MessageWithoutChatFallsBackToUser(t *testing.T) {
	id := Identify(&Message{MessageID: 1, From: &User{ID: 42}})
	assert.Equal(t, int64(42), id.ChatID)
}

func TestIdentify_CallbackQuery(t *testing.T) {
	tests := []struct {
		name string
		ev   *CallbackQuery
		want Identity
	}{
		{
			name: "with origin message",
			ev:   &CallbackQuery{ID: "c1", From: &User{ID: 5}, Message: &Message{MessageID: 9, Chat: Chat{ID: 5}}},
			want: Identity{User: 5, ChatID: 5, ReplyTo: 9},
		},
		{
			name: "without origin message",
			ev:   &CallbackQuery{ID: "c2", From: &User{ID: 5}},
			want: Identity{User: 5, ChatID: 5},
		},
		{
			name: "without sender",
			ev:   &CallbackQuery{ID: "c3"},
			want: Identity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.ev))
		})
	}
}

func TestIdentify_UpdateEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		ev       *Update
		wantUser UserID
		wantKind string
	}{
		{"message", &Update{Message: &Message{From: &User{ID: 1}}}, 1, "update/message"},
		{"edited message", &Update{EditedMessage: &Message{From: &User{ID: 2}}}, 2, "update/edited_message"},
		{"callback", &Update{CallbackQuery: &CallbackQuery{From: &User{ID: 3}}}, 3, "update/callback_query"},
		{"channel post", &Update{ChannelPost: &Message{Chat: Chat{ID: -1}}}, 0, "update/channel_post"},
		{"empty", &Update{UpdateID: 10}, 0, "update/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantUser, Identify(tt.ev).User)
			assert.Equal(t, tt.wantKind, Kind(tt.ev))
		})
	}
}

func TestIdentify_NilEventsHaveNoIdentity(t *testing.T) {
	var msg *Message
	var cb *CallbackQuery
	var up *Update

	assert.False(t, Identify(nil).OK())
	assert.False(t, Identify(msg).OK())
	assert.False(t, Identify(cb).OK())
	assert.False(t, Identify(up).OK())
	assert.False(t, Identify(&Message{From: &User{}}).OK())
}

func TestCallbackData(t *testing.T) {
	data, ok := CallbackData(&CallbackQuery{Data: "check_sub"})
	assert.True(t, ok)
	assert.Equal(t, "check_sub", data)

	data, ok = CallbackData(&Update{CallbackQuery: &CallbackQuery{Data: "vote:1"}})
	assert.True(t, ok)
	assert.Equal(t, "vote:1", data)

	_, ok = CallbackData(&Message{Text: "check_sub"})
	assert.False(t, ok)
}
