// Package chat implements the support chat: per-session message logs and an
// automatic responder.
package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxTextLen = 1000

var ErrSessionNotFound = errors.New("chat session not found")

type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type MessageType string

const (
	TypeWelcome MessageType = "welcome"
	TypeUser    MessageType = "user"
	TypeReply   MessageType = "reply"
	TypeSystem  MessageType = "system"
)

type Message struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	FromUser bool        `json:"from_user"`
	Time     time.Time   `json:"time"`
	Category string      `json:"category,omitempty"`
	Type     MessageType `json:"type"`
}

const (
	welcomeText = "👋 Olá! Sou a assistente virtual da TechCorp. Como posso ajudar você hoje?"
	clearedText = "🔄 Chat limpo! Como posso ajudar agora?"
)

func newMessage(text string, typ MessageType, now time.Time) Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Message{
		ID:       id.String(),
		Text:     text,
		FromUser: typ == TypeUser,
		Time:     now.UTC(),
		Type:     typ,
	}
}

func welcomeMessage(now time.Time) Message { return newMessage(welcomeText, TypeWelcome, now) }
func clearedMessage(now time.Time) Message { return newMessage(clearedText, TypeSystem, now) }

// NormalizeText trims text and enforces the 1..MaxTextLen character range.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return "", ValidationError("text is required")
	case n > MaxTextLen:
		return "", ValidationError("text must be at most 1000 characters")
	}
	return text, nil
}
