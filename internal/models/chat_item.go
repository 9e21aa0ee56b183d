package models

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type ChatItemKind string

const (
	ChatItemString   ChatItemKind = "string"
	ChatItemKeyValue ChatItemKind = "keyValue"
)

// ChatItem is the diary projection of an event.
type ChatItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Time        float64         `json:"time"`
	Kind        ChatItemKind    `json:"type"`
	Text        string          `json:"content,omitempty"`
	Fields      []ChatItemField `json:"fields,omitempty"`
	Event       *Event          `json:"-"`
}

type ChatItemField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// hiddenStreamPrefix marks system streams that never show in the diary.
const hiddenStreamPrefix = ":_"

// ChatItemFromEvent builds the diary item for e, ok is false for events that are
// not displayed.
func ChatItemFromEvent(e Event, lang string) (ChatItem, bool) {
	if e.ID == "" || strings.HasPrefix(e.PrimaryStream(), hiddenStreamPrefix) {
		return ChatItem{}, false
	}

	ev := e
	item := ChatItem{
		ID:          e.ID,
		Title:       "streamId: " + e.PrimaryStream(),
		Description: "type: " + e.Type,
		Time:        e.Time,
		Kind:        ChatItemString,
		Text:        prettyContent(e.Content),
		Event:       &ev,
	}

	if e.Type == CollectorRequestEventType {
		content := gjson.ParseBytes(e.Content)
		request := content.Get("requesterEventData.content")
		item.Title = "Request for connection"
		item.Description = localized(request.Get("title"), lang)
		item.Kind = ChatItemKeyValue
		item.Text = ""
		item.Fields = []ChatItemField{
			{Key: "From", Value: request.Get("requester.name").String()},
			{Key: "Info", Value: localized(request.Get("description"), lang)},
			{Key: "Status", Value: content.Get("status").String()},
		}
	}
	return item, true
}

// localized reads a {"en": "...", "fr": "..."} value, falling back to en and then
// to the first available language. Plain strings are returned as is.
func localized(v gjson.Result, lang string) string {
	if !v.IsObject() {
		return v.String()
	}
	if s := v.Get(lang); s.Exists() {
		return s.String()
	}
	if s := v.Get("en"); s.Exists() {
		return s.String()
	}
	out := ""
	v.ForEach(func(_, value gjson.Result) bool {
		out = value.String()
		return false
	})
	return out
}

func prettyContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
