// Package chat builds the flat key|value console-message wire format (spec.md
// §4.6.1, §4.7) and dispatches `/`-prefixed chat commands.
package chat

import (
	"strconv"
	"strings"
)

// Message is an ordered sequence of key|value pairs, the text-packet
// payload format used for everything from login prompts to talk bubbles.
type Message struct {
	pairs [][2]string
}

// New starts a message whose first pair is always action|name.
func New(action string) *Message {
	return &Message{pairs: [][2]string{{"action", action}}}
}

// Set appends a key|value pair and returns m for chaining.
func (m *Message) Set(key, value string) *Message {
	m.pairs = append(m.pairs, [2]string{key, value})
	return m
}

// String renders the `\n`-joined key|value block.
func (m *Message) String() string {
	var b strings.Builder
	for i, p := range m.pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p[0])
		b.WriteByte('|')
		b.WriteString(p[1])
	}
	return b.String()
}

// Parse splits a raw key|value block into its action and a lookup map
// (spec §4.6.1: "Extract action").
func Parse(raw string) (action string, values map[string]string) {
	values = make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		k, v, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		values[k] = v
		if k == "action" {
			action = v
		}
	}
	return action, values
}

// ConsoleMessage builds an OnConsoleMessage payload. Color markup (e.g.
// the backtick-4 red used for errors) is embedded directly in text, the
// way the upstream client expects.
func ConsoleMessage(text string) *Message {
	return New("OnConsoleMessage").Set("msg", text)
}

// ErrorConsoleMessage wraps text in the red color markup used for command
// errors and rejections.
func ErrorConsoleMessage(text string) *Message {
	return ConsoleMessage("`4" + text + "`")
}

// TalkBubble builds an OnTalkBubble payload for netID saying text.
func TalkBubble(netID int32, text string) *Message {
	return New("OnTalkBubble").Set("netID", strconv.Itoa(int(netID))).Set("msg", text)
}

// OnRemove builds an OnRemove payload for netID.
func OnRemove(netID int32) *Message {
	return New("OnRemove").Set("netID", strconv.Itoa(int(netID)))
}

// OnNameChanged builds an OnNameChanged payload.
func OnNameChanged(netID int32, name string) *Message {
	return New("OnNameChanged").Set("netID", strconv.Itoa(int(netID))).Set("name", name)
}
