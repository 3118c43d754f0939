package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const apiBase = "https://api.telegram.org/bot"

// Client is a thin Bot API client covering the calls the bot core consumes.
type Client struct {
	httpClient  *http.Client
	token       string
	botID       int64
	pollTimeout time.Duration
	log         zerolog.Logger
}

func NewClient(token string, pollTimeout time.Duration, log zerolog.Logger) *Client {
	var botID int64
	if idx := strings.IndexByte(token, ':'); idx > 0 {
		botID, _ = strconv.ParseInt(token[:idx], 10, 64)
	}

	return &Client{
		httpClient: &http.Client{
			// Long poll needs headroom over the poll timeout itself.
			Timeout: pollTimeout + 10*time.Second,
		},
		token:       token,
		botID:       botID,
		pollTimeout: pollTimeout,
		log:         log.With().Str("component", "telegram").Logger(),
	}
}

// BotID returns the bot's own user id, parsed from the token.
func (c *Client) BotID() int64 {
	return c.botID
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(int(c.pollTimeout.Seconds()))},
		"allowed_updates": {`["message","callback_query"]`},
	}

	result, err := c.makeRequest(ctx, "GET", "getUpdates", params)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse updates: %w", err)
	}
	return updates, nil
}

// GetChatMember returns the member status of user in chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (string, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}

	result, err := c.makeRequest(ctx, "GET", "getChatMember", params)
	if err != nil {
		return "", fmt.Errorf("failed to get chat member: %w", err)
	}

	var member ChatMember
	if err := json.Unmarshal(result, &member); err != nil {
		return "", fmt.Errorf("failed to parse chat member: %w", err)
	}
	return member.Status, nil
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	return c.sendMessage(ctx, chatID, 0, text, nil)
}

func (c *Client) SendWithKeyboard(ctx context.Context, chatID int64, text string, kb InlineKeyboardMarkup) (int64, error) {
	return c.sendMessage(ctx, chatID, 0, text, &kb)
}

func (c *Client) Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error) {
	return c.sendMessage(ctx, chatID, replyTo, text, nil)
}

func (c *Client) sendMessage(ctx context.Context, chatID, replyTo int64, text string, kb *InlineKeyboardMarkup) (int64, error) {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}
	if replyTo != 0 {
		params.Set("reply_to_message_id", strconv.FormatInt(replyTo, 10))
	}
	if kb != nil {
		markup, err := json.Marshal(kb)
		if err != nil {
			return 0, fmt.Errorf("failed to encode keyboard: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}

	result, err := c.makeRequest(ctx, "POST", "sendMessage", params)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	var sent Message
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("failed to parse sent message: %w", err)
	}
	return sent.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID, messageID int64, text string) error {
	return c.editMessage(ctx, chatID, messageID, text, nil)
}

func (c *Client) EditWithKeyboard(ctx context.Context, chatID, messageID int64, text string, kb InlineKeyboardMarkup) error {
	return c.editMessage(ctx, chatID, messageID, text, &kb)
}

func (c *Client) editMessage(ctx context.Context, chatID, messageID int64, text string, kb *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}
	if kb != nil {
		markup, err := json.Marshal(kb)
		if err != nil {
			return fmt.Errorf("failed to encode keyboard: %w", err)
		}
		params.Set("reply_markup", string(markup))
	}

	if _, err := c.makeRequest(ctx, "POST", "editMessageText", params); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, chatID, messageID int64) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
	}

	if _, err := c.makeRequest(ctx, "POST", "deleteMessage", params); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (c *Client) React(ctx context.Context, chatID, messageID int64, emoji string) error {
	reaction, err := json.Marshal([]map[string]string{{"type": "emoji", "emoji": emoji}})
	if err != nil {
		return fmt.Errorf("failed to encode reaction: %w", err)
	}

	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"reaction":   {string(reaction)},
	}

	if _, err := c.makeRequest(ctx, "POST", "setMessageReaction", params); err != nil {
		return fmt.Errorf("failed to set reaction: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	params := url.Values{
		"callback_query_id": {callbackID},
	}
	if text != "" {
		params.Set("text", text)
	}
	if alert {
		params.Set("show_alert", "true")
	}

	if _, err := c.makeRequest(ctx, "POST", "answerCallbackQuery", params); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// SendDocument uploads data as a document with the given filename.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to write chat_id field: %w", err)
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	endpoint := apiBase + c.token + "/sendDocument"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.Ok {
		return fmt.Errorf("telegram API error: %s", parsed.Description)
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, method, apiMethod string, data url.Values) (json.RawMessage, error) {
	endpoint := apiBase + c.token + "/" + apiMethod

	var req *http.Request
	var err error

	if method == "POST" {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(data) > 0 {
			endpoint = endpoint + "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.Ok {
		c.log.Debug().Str("method", apiMethod).Str("description", parsed.Description).Msg("API call rejected")
		return nil, fmt.Errorf("telegram API error: %s", parsed.Description)
	}

	return parsed.Result, nil
}
