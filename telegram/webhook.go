package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// serveWebhook registers the webhook with Telegram and blocks serving it.
func (b *Bot) serveWebhook() error {
	endpoint := b.cfg.Telegram.WebhookURL + "/webhook/" + b.client.Token

	wh, err := tgbotapi.NewWebhook(endpoint)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	wh.AllowedUpdates = allowedUpdates

	if _, err := b.client.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	b.logger.Infof("Webhook registered at %s/webhook/<token>", b.cfg.Telegram.WebhookURL)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/"+b.client.Token, b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	b.logger.Infof("Listening on %s", b.cfg.Telegram.ListenAddr)
	return http.ListenAndServe(b.cfg.Telegram.ListenAddr, mux)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		// Discard malformed updates but still report success, otherwise
		// Telegram redelivers the same broken payload forever.
		b.logger.Errorf("Failed to decode update: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	b.HandleUpdate(&update)
	w.WriteHeader(http.StatusOK)
}
