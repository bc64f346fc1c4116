package notifications

import (
	"context"
	"time"
)

// ShareInvitation tells a user that a list was shared with them.
type ShareInvitation struct {
	ListID        int64
	ListTitle     string
	RecipientID   int64
	RecipientName string
	InvitedBy     int64
	Permission    string
	InvitedAt     time.Time
}

type Notifier interface {
	SendShareInvitation(ctx context.Context, in ShareInvitation) error
}
