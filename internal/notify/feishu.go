package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wheel/internal/conf"

	"github.com/google/wire"
	jsoniter "github.com/json-iterator/go"
)

var ProviderSet = wire.NewSet(NewFeishu)

type Feishu struct {
	WebhookURL    string
	SigningSecret string
	Prefix        string
	Client        *http.Client
}

func NewFeishu(c *conf.Notify) Notifier {
	if c == nil || !c.Enabled || strings.TrimSpace(c.GetWebhookUrl()) == "" {
		return Noop{}
	}
	return &Feishu{
		WebhookURL:    strings.TrimSpace(c.GetWebhookUrl()),
		SigningSecret: strings.TrimSpace(c.GetSigningSecret()),
		Prefix:        strings.TrimSpace(c.GetPrefix()),
		Client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Feishu) Send(ctx context.Context, msg *Message) error {
	if f.WebhookURL == "" || msg == nil {
		return nil
	}

	content := msg.Content
	if content == "" {
		content = msg.Title
	}
	title := msg.Title
	if title == "" {
		title = "通知"
	}
	template := msg.Template
	if template == "" {
		template = "blue"
	}
	if p := strings.TrimSpace(f.Prefix); p != "" {
		title = p + " " + title
	}

	payload := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"config":   map[string]bool{"wide_screen_mode": true},
			"header":   map[string]any{"title": map[string]string{"tag": "plain_text", "content": title}, "template": template},
			"elements": []map[string]any{{"tag": "div", "text": map[string]string{"tag": "lark_md", "content": content}}},
		},
	}
	if f.SigningSecret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		payload["timestamp"] = ts
		payload["sign"] = f.sign(ts)
	}

	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return fmt.Errorf("feishu: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("feishu: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feishu: status %d", resp.StatusCode)
	}
	var r struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	_ = jsoniter.NewDecoder(resp.Body).Decode(&r)
	if r.Code != 0 {
		return fmt.Errorf("feishu: code=%d msg=%s", r.Code, r.Msg)
	}
	return nil
}

// sign 飞书加签：HMAC-SHA256(key=timestamp+\n+secret, message="")
func (f *Feishu) sign(ts string) string {
	key := ts + "\n" + f.SigningSecret
	h := hmac.New(sha256.New, []byte(key))
	h.Write(nil)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// PrizeReport 中奖通知内容
type PrizeReport struct {
	DrawID    string
	Result    string
	Message   string
	Landed    string
	Rotation  float64
	RecordURL string
	At        time.Time
}

// BuildPrizeMessage 构建中奖的 Markdown 消息
func BuildPrizeMessage(r *PrizeReport) *Message {
	if r == nil {
		return &Message{Title: "转盘中奖", Template: "red"}
	}
	lines := []string{
		fmt.Sprintf("**奖品**：%s", r.Result),
		fmt.Sprintf("**停止扇区**：%s", r.Landed),
		fmt.Sprintf("**累计旋转**：%.4f rad", r.Rotation),
		fmt.Sprintf("**时间**：%s", r.At.Format(time.DateTime)),
	}
	if r.DrawID != "" {
		lines = append([]string{fmt.Sprintf("**编号**：%s", r.DrawID)}, lines...)
	}
	if r.Message != "" {
		lines = append(lines, r.Message)
	}
	if r.RecordURL != "" {
		lines = append(lines, fmt.Sprintf("[回放](%s)", r.RecordURL))
	}
	return &Message{Title: "转盘中奖", Content: strings.Join(lines, "\n"), Template: "red"}
}
