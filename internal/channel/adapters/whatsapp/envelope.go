package whatsapp

import (
	"bytes"
	"encoding/json"
)

// envelope is the relay shape self-hosted gateways post for both WhatsApp
// providers: a messages array or a single message object, with the text,
// sender, and message id possibly hoisted to the top level.
type envelope struct {
	Messages  []envelopeMessage `json:"messages"`
	Message   *envelopeMessage  `json:"message"`
	Text      flexText          `json:"text"`
	From      string            `json:"from"`
	User      string            `json:"user"`
	MessageID string            `json:"message_id"`
}

type envelopeMessage struct {
	From      string   `json:"from"`
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
	Text      flexText `json:"text"`
}

// extract resolves each field through the message-first fallback chain.
func (e *envelope) extract() (text, userID, messageID, timestamp string) {
	m := e.Message
	if len(e.Messages) > 0 {
		m = &e.Messages[0]
	}
	if m != nil {
		text, userID, messageID, timestamp = m.Text.Body, m.From, m.ID, m.Timestamp
	}
	if text == "" {
		text = e.Text.Body
	}
	if userID == "" {
		userID = e.From
	}
	if userID == "" {
		userID = e.User
	}
	if messageID == "" {
		messageID = e.MessageID
	}
	return text, userID, messageID, timestamp
}

// flexText accepts both the WABA object form {"body": "..."} and a bare
// string. Any other JSON type reads as empty text.
type flexText struct {
	Body string
}

func (t *flexText) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &t.Body)
	case '{':
		var obj struct {
			Body string `json:"body"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		t.Body = obj.Body
	}
	return nil
}
