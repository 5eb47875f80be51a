package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// adminNotifier delivers operational notices (new registrations) to the
// privileged chat. The bot handle arrives only after startup, hence the
// atomic pointer.
type adminNotifier struct {
	adminID int64
	bot     atomic.Pointer[tele.Bot]
}

func (n *adminNotifier) setBot(b *tele.Bot) {
	n.bot.Store(b)
}

// NotificarAdmin sends the text to the configured admin chat. With no admin
// configured or before startup it is a no-op.
func (n *adminNotifier) NotificarAdmin(_ context.Context, texto string) error {
	b := n.bot.Load()
	if b == nil || n.adminID == 0 {
		return nil
	}
	if _, err := b.Send(&tele.User{ID: n.adminID}, texto); err != nil {
		return fmt.Errorf("bot: avisar admin: %w", err)
	}
	return nil
}
