package application

import (
	"strconv"
	"strings"
	"time"

	"admission-gate/middleware/admission/domain"
)

// CheckSubscriptionData é o callback do botão "verificar assinatura" do convite.
const CheckSubscriptionData = "check_sub"

// Notices são os textos que o gate envia. {seconds} é substituído pelo tempo
// de espera arredondado para cima.
type Notices struct {
	NewlyBlocked string
	StillBlocked string

	Prompt        string
	ParseMode     string
	ChannelURL    string
	ChannelButton string
	CheckButton   string
}

func DefaultNotices() Notices {
	return Notices{
		NewlyBlocked:  "⛔ Too many requests. You are blocked for {seconds} s.",
		StillBlocked:  "⏳ Please wait {seconds} s before trying again.",
		Prompt:        "📢 <b>To use this bot</b>, please subscribe to our official channel.\n\n👉 After subscribing, press <b>Check subscription</b> below.",
		ParseMode:     "HTML",
		ChannelButton: "Go to channel",
		CheckButton:   "Check subscription",
	}
}

// RateText retorna o aviso para uma admissão rejeitada ("" se aceita).
func (n Notices) RateText(adm domain.Admission) string {
	var tpl string
	switch adm.Verdict {
	case domain.RejectedNewlyBlocked:
		tpl = n.NewlyBlocked
	case domain.RejectedBlocked:
		tpl = n.StillBlocked
	default:
		return ""
	}
	return strings.ReplaceAll(tpl, "{seconds}", formatSeconds(adm.Wait))
}

// PromptMessage monta o convite de assinatura para o chat privado do usuário.
func (n Notices) PromptMessage(chatID int64) domain.OutgoingMessage {
	var rows [][]domain.Button
	if n.ChannelURL != "" {
		rows = append(rows, []domain.Button{{Text: n.ChannelButton, URL: n.ChannelURL}})
	}
	rows = append(rows, []domain.Button{{Text: n.CheckButton, CallbackData: CheckSubscriptionData}})

	return domain.OutgoingMessage{
		ChatID:    chatID,
		Text:      n.Prompt,
		ParseMode: n.ParseMode,
		Buttons:   rows,
	}
}

// ChannelURL monta o link público de um canal a partir do @username.
func ChannelURL(username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return ""
	}
	return "https://t.me/" + username
}

func formatSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}
