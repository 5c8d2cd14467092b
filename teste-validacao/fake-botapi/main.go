package main

// Bot API falsa para validar o gatebot localmente:
//
//	FAKE_MEMBERS=1,2 go run ./teste-validacao/fake-botapi
//	BOT_TOKEN=x BOT_API_URL=http://localhost:8081 CHANNEL_ID=@canal go run ./cmd/gatebot

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	members := map[int64]bool{}
	for _, s := range strings.Split(os.Getenv("FAKE_MEMBERS"), ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			members[id] = true
		}
	}

	var nextID atomic.Int64

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		logger.Info("bot api call", zap.String("method", method), zap.Any("body", body))

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "sendMessage":
			chat, _ := body["chat_id"].(float64)
			writeOK(w, map[string]any{"message_id": nextID.Add(1), "chat": map[string]any{"id": int64(chat)}})
		case "getChatMember":
			user, _ := body["user_id"].(float64)
			status := "left"
			if members[int64(user)] {
				status = "member"
			}
			writeOK(w, map[string]any{"status": status})
		case "deleteMessage", "answerCallbackQuery", "setWebhook":
			writeOK(w, true)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 404, "description": "Not Found"})
		}
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	logger.Info("fake bot api listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func writeOK(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}
