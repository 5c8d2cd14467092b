package domain

// Eventos de entrada: um tipo soma fechado sobre os formatos aceitos pelo
// pipeline. A identidade é resolvida uma vez, na borda, via Identify.

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Update é o envelope entregue pelo transporte; no máximo um dos campos vem preenchido.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	ChannelPost   *Message       `json:"channel_post,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Event é implementado apenas por *Message, *CallbackQuery e *Update.
type Event interface {
	identity() Identity
	kind() string
}

// Identity é a forma normalizada (usuário, destino, mensagem de origem) de um evento.
type Identity struct {
	User UserID
	// ChatID é para onde vão as notificações do gate.
	ChatID int64
	// ReplyTo é a mensagem que originou o evento (0 se não houver).
	ReplyTo int64
}

func (id Identity) OK() bool { return id.User != 0 }

// Identify extrai a identidade de qualquer evento. É total: eventos nil, sem
// remetente ou de canal retornam Identity{} (sem identidade).
func Identify(ev Event) Identity {
	if ev == nil {
		return Identity{}
	}
	return ev.identity()
}

// Kind retorna o nome do formato do evento, útil para logs.
func Kind(ev Event) string {
	if ev == nil {
		return "none"
	}
	return ev.kind()
}

// CallbackData retorna o payload de um callback, direto ou dentro de um Update.
func CallbackData(ev Event) (string, bool) {
	switch e := ev.(type) {
	case *CallbackQuery:
		if e != nil {
			return e.Data, true
		}
	case *Update:
		if e != nil && e.CallbackQuery != nil {
			return e.CallbackQuery.Data, true
		}
	}
	return "", false
}

func (m *Message) identity() Identity {
	if m == nil || m.From == nil || m.From.ID == 0 {
		return Identity{}
	}
	chat := m.Chat.ID
	if chat == 0 {
		chat = m.From.ID
	}
	return Identity{User: UserID(m.From.ID), ChatID: chat, ReplyTo: m.MessageID}
}

func (m *Message) kind() string { return "message" }

func (c *CallbackQuery) identity() Identity {
	if c == nil || c.From == nil || c.From.ID == 0 {
		return Identity{}
	}
	id := Identity{User: UserID(c.From.ID), ChatID: c.From.ID}
	if c.Message != nil {
		if c.Message.Chat.ID != 0 {
			id.ChatID = c.Message.Chat.ID
		}
		id.ReplyTo = c.Message.MessageID
	}
	return id
}

func (c *CallbackQuery) kind() string { return "callback_query" }

func (u *Update) identity() Identity {
	if u == nil {
		return Identity{}
	}
	switch {
	case u.Message != nil:
		return u.Message.identity()
	case u.EditedMessage != nil:
		return u.EditedMessage.identity()
	case u.CallbackQuery != nil:
		return u.CallbackQuery.identity()
	}
	// channel_post e formatos desconhecidos não têm autor utilizável.
	return Identity{}
}

func (u *Update) kind() string {
	if u == nil {
		return "none"
	}
	switch {
	case u.Message != nil:
		return "update/message"
	case u.EditedMessage != nil:
		return "update/edited_message"
	case u.CallbackQuery != nil:
		return "update/callback_query"
	case u.ChannelPost != nil:
		return "update/channel_post"
	}
	return "update/unknown"
}
