package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"admission-gate/middleware/admission/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBotAPIURL = "https://api.telegram.org"

// APIError é uma resposta ok=false da Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("botapi %s: %d %s", e.Method, e.Code, e.Description)
}

// IsBadRequest indica uma recusa explícita da API (ex: usuário inexistente no chat).
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest
}

// BotClient fala com a Bot API via HTTP/JSON. Implementa domain.Messenger.
//
// As mensagens de saída passam por um token bucket (x/time/rate) para respeitar
// o limite global do transporte. Consultas de membership têm um bucket próprio:
// uma enxurrada de avisos não pode atrasar a decisão de outro usuário.
type BotClient struct {
	baseURL      string
	token        string
	http         *http.Client
	limiter      *rate.Limiter
	probeLimiter *rate.Limiter
	logger       *zap.Logger
}

type BotOption func(*BotClient)

func WithBaseURL(u string) BotOption {
	return func(c *BotClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) BotOption {
	return func(c *BotClient) { c.http = h }
}

// WithOutboundRate limita envios, remoções e respostas de callback.
// rps <= 0 desliga o limite.
func WithOutboundRate(rps float64, burst int) BotOption {
	return func(c *BotClient) { c.limiter = newLimiter(rps, burst) }
}

// WithProbeRate limita as consultas getChatMember. rps <= 0 desliga o limite.
func WithProbeRate(rps float64, burst int) BotOption {
	return func(c *BotClient) { c.probeLimiter = newLimiter(rps, burst) }
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func WithBotLogger(l *zap.Logger) BotOption {
	return func(c *BotClient) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewBotClient(token string, opts ...BotOption) *BotClient {
	c := &BotClient{
		baseURL:      defaultBotAPIURL,
		token:        token,
		http:         &http.Client{Timeout: 10 * time.Second},
		limiter:      rate.NewLimiter(30, 30),
		probeLimiter: rate.NewLimiter(30, 30),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID           int64           `json:"chat_id"`
	Text             string          `json:"text"`
	ParseMode        string          `json:"parse_mode,omitempty"`
	ReplyToMessageID int64           `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      *inlineKeyboard `json:"reply_markup,omitempty"`
}

// Send implementa domain.Messenger.
func (c *BotClient) Send(ctx context.Context, msg domain.OutgoingMessage) (domain.MessageRef, error) {
	req := sendMessageRequest{
		ChatID:           msg.ChatID,
		Text:             msg.Text,
		ParseMode:        msg.ParseMode,
		ReplyToMessageID: msg.ReplyTo,
	}
	if len(msg.Buttons) > 0 {
		kb := &inlineKeyboard{InlineKeyboard: make([][]inlineButton, 0, len(msg.Buttons))}
		for _, row := range msg.Buttons {
			r := make([]inlineButton, 0, len(row))
			for _, b := range row {
				r = append(r, inlineButton{Text: b.Text, URL: b.URL, CallbackData: b.CallbackData})
			}
			kb.InlineKeyboard = append(kb.InlineKeyboard, r)
		}
		req.ReplyMarkup = kb
	}

	var out domain.Message
	if err := c.call(ctx, c.limiter, "sendMessage", req, &out); err != nil {
		return domain.MessageRef{}, err
	}
	chat := out.Chat.ID
	if chat == 0 {
		chat = msg.ChatID
	}
	return domain.MessageRef{ChatID: chat, MessageID: out.MessageID}, nil
}

// Delete implementa domain.Messenger.
func (c *BotClient) Delete(ctx context.Context, ref domain.MessageRef) error {
	return c.call(ctx, c.limiter, "deleteMessage", map[string]int64{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
	}, nil)
}

// AnswerCallback fecha o "loading" de um botão inline.
func (c *BotClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, c.limiter, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackID,
		"text":              text,
	}, nil)
}

// ChatMemberStatus retorna o status ("member", "left", ...) do usuário no chat.
// chatID aceita "@username" ou o id numérico como string.
func (c *BotClient) ChatMemberStatus(ctx context.Context, chatID string, user domain.UserID) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	err := c.call(ctx, c.probeLimiter, "getChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": int64(user),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Status == "" {
		return "", errors.New("botapi getChatMember: empty status")
	}
	return out.Status, nil
}

// SetWebhook registra url como destino dos updates. secret vazio não envia
// secret_token.
func (c *BotClient) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]string{"url": url}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, nil, "setWebhook", payload, nil)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *BotClient) call(ctx context.Context, lim *rate.Limiter, method string, payload, out any) error {
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("botapi %s: %w", method, err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("botapi %s: encode: %w", method, err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("botapi %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("botapi %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return fmt.Errorf("botapi %s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		c.logger.Debug("bot api call failed",
			zap.String("method", method),
			zap.Int("code", code),
			zap.String("description", env.Description),
		)
		return &APIError{Method: method, Code: code, Description: env.Description}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("botapi %s: decode result: %w", method, err)
		}
	}
	return nil
}
