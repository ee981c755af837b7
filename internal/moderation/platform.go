package moderation

import (
	"context"
	"errors"
	"fmt"
)

// ErrForbidden is returned by a Platform when the bot lacks the permission
// for the call.
var ErrForbidden = errors.New("missing permissions")

// PlatformError wraps any other failure reported by the chat platform.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Platform is the chat platform capability the engine acts through. Every
// call is a single attempt.
type Platform interface {
	BanMember(ctx context.Context, guildID, memberID, reason string) error
	SendDirectMessage(ctx context.Context, memberID, text string) error
	SendChannelMessage(ctx context.Context, channelID string, notice Notice) error
}

type NoticeKind int

const (
	NoticeBan NoticeKind = iota
	NoticeAlert
	NoticeFailure
)

// Notice is a message for a guild's registered channel. The bot layer
// decides how it is rendered.
type Notice struct {
	Kind     NoticeKind
	Title    string
	Text     string
	TargetID string
}
