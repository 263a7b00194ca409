package notify

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// deliver posts a to every configured target. Failures are logged only.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.sendSlack(url, a)
		case "teams":
			err = e.sendTeams(url, a)
		case "http":
			err = e.sendHTTP(url, a)
		default:
			slog.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("notify: webhook delivery failed", "type", wh.Type, "alert", a.ID, "err", err)
			continue
		}
		slog.Debug("notify: webhook delivered", "type", wh.Type, "alert", a.ID, "state", a.State)
	}
}

func (e *Engine) sendSlack(url string, a *Alert) error {
	body, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*NetViz %s* %s", stateLabel(a.State), a.Message),
	})
	if err != nil {
		return err
	}
	return e.post(url, body)
}

func (e *Engine) sendTeams(url string, a *Alert) error {
	body, err := json.Marshal(map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": stateColor(a.State),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("NetViz %s: %s", stateLabel(a.State), a.RuleName),
		"text":       a.Message,
	})
	if err != nil {
		return err
	}
	return e.post(url, body)
}

func (e *Engine) sendHTTP(url string, a *Alert) error {
	body, err := json.Marshal(map[string]any{"alert": a})
	if err != nil {
		return err
	}
	return e.post(url, body)
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateLabel(state string) string {
	if state == StateResolved {
		return "[RESOLVED]"
	}
	return "[WARNING]"
}

func stateColor(state string) string {
	if state == StateResolved {
		return "2EB67D"
	}
	return "FFAB40"
}
