package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes invitations to the structured log. It stands in for an
// email or push provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendShareInvitation(ctx context.Context, in ShareInvitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.share_invitation",
		"list_id", in.ListID,
		"list_title", in.ListTitle,
		"recipient_id", in.RecipientID,
		"recipient", in.RecipientName,
		"invited_by", in.InvitedBy,
		"permission", in.Permission,
	)
	return nil
}
