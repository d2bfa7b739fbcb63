package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command is a parsed bot command such as "/signal ethusdt".
type Command struct {
	ChatID   int64
	Username string
	// Name is lower-case without the leading slash or @bot suffix.
	Name string
	Args []string
}

// Arg returns the i-th argument or "".
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// CommandHandler is called when a user command is received. A non-empty
// reply is sent back to the originating chat.
type CommandHandler func(ctx context.Context, cmd Command) string

// ParseCommand parses text into a Command. Commands addressed to another bot
// (/cmd@otherbot) are rejected when botName is set.
func ParseCommand(text, botName string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		target := name[i+1:]
		name = name[:i]
		if botName != "" && !strings.EqualFold(target, botName) {
			return Command{}, false
		}
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.Bot.StopReceivingUpdates()
			t.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			cmd, ok := ParseCommand(msg.Text, t.Username())
			if !ok {
				continue
			}
			cmd.ChatID = msg.Chat.ID
			if msg.From != nil {
				cmd.Username = msg.From.UserName
			}
			t.logger.Info().Int64("chat_id", cmd.ChatID).Str("command", cmd.Name).Msg("received command")

			reply := handler(ctx, cmd)
			if reply == "" {
				continue
			}
			if err := t.Send(cmd.ChatID, reply); err != nil {
				t.logger.Error().Err(err).Int64("chat_id", cmd.ChatID).Msg("send reply")
			}
		}
	}
}
