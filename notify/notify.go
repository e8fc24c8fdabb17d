// Package notify announces completed pipeline runs over Telegram.
package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"toolscout/model"
)

const defaultTop = 5

// sender is the slice of the Telegram bot API the notifier needs. It is
// satisfied by *tgbotapi.BotAPI and by test doubles.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends a per-run summary message to a Telegram chat.
type Notifier struct {
	api    sender
	chatID int64
	top    int
}

// New connects to the Telegram bot API. top bounds how many tools the
// summary lists.
func New(token string, chatID int64, top int) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: connect to telegram: %w", err)
	}
	return &Notifier{api: api, chatID: chatID, top: top}, nil
}

// Summary is the outcome of one pipeline run, ready to announce.
type Summary struct {
	Date      string             // YYYY-MM-DD
	Scored    []model.ScoredTool // ranked, best first
	NewsCount int
}

// Send formats and delivers the summary.
func (n *Notifier) Send(s Summary) error {
	msg := tgbotapi.NewMessage(n.chatID, Format(s, n.top))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("notify: send summary: %w", err)
	}
	slog.Debug("summary sent", "chat_id", n.chatID, "message_id", sent.MessageID)
	return nil
}

// Format renders the HTML message body. Exported so the CLI can preview what
// would be sent without a configured bot.
func Format(s Summary, top int) string {
	if top <= 0 {
		top = defaultTop
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Tool report - %s</b>\n", s.Date)

	if len(s.Scored) == 0 {
		b.WriteString("No tools were extracted from this digest.")
		if s.NewsCount > 0 {
			fmt.Fprintf(&b, "\n%d news items in the full report.", s.NewsCount)
		}
		return b.String()
	}

	var builds, watches, skips int
	for _, st := range s.Scored {
		switch st.Score.Recommendation {
		case model.RecommendBuild:
			builds++
		case model.RecommendWatch:
			watches++
		default:
			skips++
		}
	}
	fmt.Fprintf(&b, "%d tools scored: %d build, %d watch, %d skip.\n", len(s.Scored), builds, watches, skips)

	listed := 0
	for _, st := range s.Scored {
		if st.Score.Recommendation == model.RecommendSkip {
			continue
		}
		if listed >= top {
			break
		}
		listed++
		fmt.Fprintf(&b, "\n%d. %s [%d/100] %s",
			listed, toolLabel(st.Research.Tool), st.Score.TotalScore, st.Score.Recommendation)
	}
	if listed == 0 {
		b.WriteString("\nNothing worth building or watching today.")
	}

	if s.NewsCount > 0 {
		fmt.Fprintf(&b, "\n\n%d news items in the full report.", s.NewsCount)
	}
	return b.String()
}

// toolLabel renders the tool name, linked to its repository when known.
func toolLabel(tool model.Tool) string {
	name := tgbotapi.EscapeText(tgbotapi.ModeHTML, tool.Name)
	if tool.GithubURL == "" {
		return name
	}
	return fmt.Sprintf("<a href=%q>%s</a>", tool.GithubURL, name)
}
