package dnscf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultPushPlusURL is the PushPlus message endpoint.
const DefaultPushPlusURL = "http://www.pushplus.plus/send"

// PushPlus delivers reports through the PushPlus messaging service.
type PushPlus struct {
	Token string
	// URL defaults to DefaultPushPlusURL.
	URL string
	// Template defaults to "markdown".
	Template string
	// Channel defaults to "wechat".
	Channel string
	// Retries is the number of extra delivery attempts after a failed POST.
	Retries int

	httpClient *http.Client
	logger     logr.Logger
}

func (p *PushPlus) SetLogger(l logr.Logger) { p.logger = l }
func (p *PushPlus) SetHTTPClient(hc *http.Client) { p.httpClient = hc }

type pushPlusMessage struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Channel  string `json:"channel"`
}

type pushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Notify implements dnscf.Notifier.
func (p *PushPlus) Notify(ctx context.Context, title, content string) error {
	if p.Token == "" {
		return errors.New("pushplus token is empty")
	}
	msg := pushPlusMessage{
		Token:    p.Token,
		Title:    title,
		Content:  content,
		Template: orDefault(p.Template, "markdown"),
		Channel:  orDefault(p.Channel, "wechat"),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error encoding pushplus message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, orDefault(p.URL, DefaultPushPlusURL), body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("pushplus request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushplus request returned %s", resp.Status)
	}

	var pr pushPlusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&pr); err != nil {
		return fmt.Errorf("error decoding pushplus response: %w", err)
	}
	if pr.Code != http.StatusOK {
		return fmt.Errorf("pushplus rejected message: code %d: %s", pr.Code, pr.Msg)
	}
	return nil
}

func (p *PushPlus) client() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = p.Retries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	if p.httpClient != nil {
		c.HTTPClient = p.httpClient
	}
	c.Logger = leveledLogger{p.logger}
	return c
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// leveledLogger adapts a logr.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logr.Logger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.Logger.Error(nil, msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any) { l.Logger.Info(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.Logger.V(1).Info(msg, kv...) }
