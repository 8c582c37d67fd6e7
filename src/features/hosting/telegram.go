package hosting

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/features/player"
	"github.com/contre95/lyricbar/src/music"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMessageLimit is the maximum length of a Telegram message.
const telegramMessageLimit = 4096

// MessageSender sends a message to Telegram.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts found lyrics of the playing track to the configured chats.
type TelegramNotifier struct {
	sender  MessageSender
	chatIDs []int64
	queue   chan player.Label
	done    chan struct{}

	mu       sync.Mutex
	lastSent string
}

// NewTelegramBot creates a notifier backed by the Telegram bot API.
func NewTelegramBot(cfg *config.Manager) (*TelegramNotifier, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}

	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)
	return NewTelegramNotifier(bot, telegramConfig.ChatIDs), nil
}

// NewTelegramNotifier creates a notifier that sends through sender.
func NewTelegramNotifier(sender MessageSender, chatIDs []int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		queue:   make(chan player.Label, 16),
		done:    make(chan struct{}),
	}
}

// LabelChanged queues found lyrics for sending. It never blocks the caller.
func (t *TelegramNotifier) LabelChanged(label player.Label) {
	if label.State != music.LyricsFound {
		return
	}
	select {
	case t.queue <- label:
	default:
		slog.Warn("Telegram queue full, dropping lyrics", "trackID", label.TrackID)
	}
}

// Start sends queued lyrics until Stop is called.
func (t *TelegramNotifier) Start() {
	slog.Info("Starting Telegram notifier", "chats", len(t.chatIDs))
	for {
		select {
		case label := <-t.queue:
			t.post(label)
		case <-t.done:
			slog.Info("Stopping Telegram notifier")
			return
		}
	}
}

// Stop stops the notifier.
func (t *TelegramNotifier) Stop() {
	close(t.done)
}

func (t *TelegramNotifier) post(label player.Label) {
	key := label.TrackID + "\x00" + label.Text
	t.mu.Lock()
	if key == t.lastSent {
		t.mu.Unlock()
		return
	}
	t.lastSent = key
	t.mu.Unlock()

	text := formatLyricsMessage(label)
	for _, chatID := range t.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if _, err := t.sender.Send(msg); err != nil {
			slog.Error("Failed to send message", "error", err, "chat_id", chatID)
		}
	}
}

func formatLyricsMessage(label player.Label) string {
	header := "*" + escapeMarkdown(label.Artist+" - "+label.Title) + "*\n\n"
	body := escapeMarkdown(label.Text)
	if len(header)+len(body) > telegramMessageLimit {
		body = truncate(body, telegramMessageLimit-len(header)-len(ellipsis))
		body += ellipsis
	}
	return header + body
}

const ellipsis = "\\.\\.\\."

// truncate cuts s to at most n bytes without splitting a rune or an escape.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	// An odd run of backslashes before cut means an escape pair was split.
	run := 0
	for i := cut - 1; i >= 0 && s[i] == '\\'; i-- {
		run++
	}
	if run%2 == 1 {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"`", "\\`",
	"*", "\\*",
	"_", "\\_",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}
