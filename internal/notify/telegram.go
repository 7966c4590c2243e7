package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTelegramAPI = "https://api.telegram.org"

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

type TelegramNotifier struct {
	httpClient *http.Client
	cfg        TelegramConfig
}

func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPI
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &TelegramNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
	}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (t *TelegramNotifier) Notify(ctx context.Context, e Event) error {
	b, _ := json.Marshal(sendMessageRequest{ChatID: t.cfg.ChatID, Text: e.Message()})

	endpoint := t.cfg.APIBase + "/bot" + t.cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("sendMessage: %w", uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sendMessage: status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}
