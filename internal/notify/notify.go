// Package notify posts a Home Assistant service call after processing,
// typically a persistent notification. Delivery is best effort.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"spooker/internal/config"
)

// Notifier calls a Home Assistant service through the supervisor API.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
	logger *slog.Logger
}

// New creates a notifier; disabled config yields a no-op notifier.
func New(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether notifications are configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Enabled && n.cfg.Token != ""
}

// Notify sends a titled message. Failures are logged, never returned:
// processing results must not depend on Home Assistant availability.
func (n *Notifier) Notify(ctx context.Context, title, message string) {
	if !n.Enabled() {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"title":   title,
		"message": message,
	})
	if err != nil {
		n.logger.Error("failed to encode notification", slog.String("error", err.Error()))
		return
	}

	url := fmt.Sprintf("%s/services/%s",
		strings.TrimSuffix(n.cfg.BaseURL, "/"),
		strings.ReplaceAll(n.cfg.Service, ".", "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("failed to build notification request", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification delivery failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("notification rejected",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode))
		return
	}

	n.logger.Debug("notification delivered", slog.String("service", n.cfg.Service))
}
