package admission

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"admission-gate/middleware/admission/domain"

	"go.uber.org/zap"
)

// SecretTokenHeader é o header com o segredo configurado no setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type WebhookOptions struct {
	SecretToken  string
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// WebhookHandler decodifica cada POST como um domain.Update e entrega para h.
//
// O processamento não é cancelado se o cliente HTTP desistir: um evento
// admitido sempre chega ao handler.
func WebhookHandler(h domain.Handler, opts WebhookOptions) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.SecretToken != "" {
			got := r.Header.Get(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(opts.SecretToken)) != 1 {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
		}

		var up domain.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)).Decode(&up); err != nil {
			opts.Logger.Debug("malformed webhook update", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		h.Handle(context.WithoutCancel(r.Context()), &up)
		w.WriteHeader(http.StatusOK)
	})
}
