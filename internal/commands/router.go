// Package commands routes inbound chat messages to bot commands.
package commands

import (
	"context"
	"strings"
	"sync"
	"time"

	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// Notifier is the outbound reply sink.
type Notifier interface {
	Send(ctx context.Context, n kit.Notification) error
}

type Config struct {
	// ChatID restricts command handling to one chat; messages from any other
	// chat are ignored.
	ChatID      int64
	DefaultTime string
}

// Router consumes adapter updates and answers the bot commands.
type Router struct {
	mu sync.Mutex

	log      logx.Logger
	notifier Notifier

	cfg     Config
	scanner *vault.Scanner

	now func() time.Time
}

func NewRouter(cfg Config, scanner *vault.Scanner, notifier Notifier, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		log:      log.With(logx.String("comp", "commands")),
		notifier: notifier,
		cfg:      cfg,
		scanner:  scanner,
		now:      time.Now,
	}
}

// Apply swaps configuration and scanner on reload.
func (r *Router) Apply(cfg Config, scanner *vault.Scanner) {
	r.mu.Lock()
	r.cfg = cfg
	if scanner != nil {
		r.scanner = scanner
	}
	r.mu.Unlock()
}

// Run drains the update channel until ctx is cancelled or the channel closes.
func (r *Router) Run(ctx context.Context, updates <-chan kit.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			if up.Message == nil {
				continue
			}
			r.handle(ctx, up.Message)
		}
	}
}

func (r *Router) handle(ctx context.Context, m *kit.Message) {
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()

	if cfg.ChatID != 0 && m.ChatID != cfg.ChatID {
		r.log.Debug("message from unexpected chat ignored",
			logx.Int64("chat_id", m.ChatID), logx.String("from", m.FromUsername))
		return
	}

	cmd, ok := parseCommand(m.Text)
	if !ok {
		return
	}

	var reply string
	switch cmd {
	case "start", "help":
		reply = helpText
	case "check":
		reply = r.listTasks(allTasks)
	case "today":
		reply = r.listTasks(todayTasks)
	default:
		r.log.Debug("unknown command", logx.String("command", cmd))
		return
	}

	err := r.notifier.Send(ctx, kit.Notification{
		Target: kit.ChatTarget{ChatID: m.ChatID},
		Text:   reply,
	})
	if err != nil {
		r.log.Warn("command reply failed", logx.String("command", cmd), logx.Err(err))
		return
	}
	r.log.Info("command handled", logx.String("command", cmd), logx.String("from", m.FromUsername))
}

const helpText = "👋 I watch your task files and ping you when something is due.\n\n" +
	"/check — list every tracked task\n" +
	"/today — list tasks relevant today\n" +
	"/help — this message"

type listMode int

const (
	allTasks listMode = iota
	todayTasks
)

func (r *Router) listTasks(mode listMode) string {
	r.mu.Lock()
	cfg := r.cfg
	scanner := r.scanner
	r.mu.Unlock()

	tasks := scanner.Scan(cfg.DefaultTime)

	var b strings.Builder
	var n int
	if mode == todayTasks {
		day := r.now()
		b.WriteString("🗓 Tasks for ")
		b.WriteString(day.Format("2006-01-02"))
		b.WriteString(":\n")
		for _, t := range tasks {
			if !vault.RelevantOn(t, day) {
				continue
			}
			b.WriteString("\n")
			b.WriteString(vault.FormatTaskLine(t))
			n++
		}
		if n == 0 {
			return "🗓 Nothing scheduled for today."
		}
		return b.String()
	}

	b.WriteString("📋 Tracked tasks:\n")
	for _, t := range tasks {
		b.WriteString("\n")
		b.WriteString(vault.FormatTaskLine(t))
		n++
	}
	if n == 0 {
		return "📋 No unchecked tasks found."
	}
	return b.String()
}

// parseCommand extracts the command name from a leading "/cmd" or "/cmd@bot"
// token. Non-command text returns ok=false.
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	token := text[1:]
	if i := strings.IndexAny(token, " \t\n"); i >= 0 {
		token = token[:i]
	}
	if i := strings.IndexByte(token, '@'); i >= 0 {
		token = token[:i]
	}
	token = strings.ToLower(token)
	if token == "" {
		return "", false
	}
	return token, true
}
