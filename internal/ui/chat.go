package ui

import (
	"context"
	"strings"
	"sync"

	"fintrack/internal/log"
	"fintrack/internal/view"
)

const (
	chatNoReply   = "Sorry, I could not reply."
	chatLoggedOut = "Please log in to use the chatbot."
)

// ChatWidget is a single request/response exchange with the assistant. The
// transcript is append-only and lives only as long as the session.
type ChatWidget struct {
	mu     sync.Mutex
	api    ChatAPI
	open   bool
	lines  []view.ChatLine
	region *view.Region
	logger *log.Logger
}

func NewChatWidget(api ChatAPI, logger *log.Logger) *ChatWidget {
	return &ChatWidget{
		api:    api,
		region: view.NewRegion("chatbot-messages", view.ChatTranscript(nil)),
		logger: log.OrDefault(logger, log.ComponentUI),
	}
}

func (c *ChatWidget) Toggle() {
	c.mu.Lock()
	c.open = !c.open
	c.mu.Unlock()
}

func (c *ChatWidget) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Send echoes the user's message, then appends the reply or a fallback line.
// Blank input is ignored.
func (c *ChatWidget) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.append(view.ChatLine{Sender: "user", Text: text})

	reply, err := c.api.Chat(ctx, text)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "Chat request failed", log.FieldOperation, log.OpChat, log.FieldError, err)
		reply = chatLoggedOut
	case reply == "":
		reply = chatNoReply
	}
	c.append(view.ChatLine{Sender: "bot", Text: reply})
}

func (c *ChatWidget) append(line view.ChatLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	c.region.Replace(view.ChatTranscript(c.lines))
}

// Transcript returns a copy of every line so far.
func (c *ChatWidget) Transcript() []view.ChatLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]view.ChatLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *ChatWidget) Region() *view.Region {
	return c.region
}
