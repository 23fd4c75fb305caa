package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

func (s *Service) startCron() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	s.cron = cron.New()
	s.cron.Start()
}

// rescheduleDigest replaces the digest entry with one for the given spec.
// An empty spec just removes the entry. Invalid specs are rejected at config
// validation, so a parse failure here is only logged.
func (s *Service) rescheduleDigest(spec string) {
	if spec != "" {
		s.startCron()
	}

	s.mu.Lock()
	c := s.cron
	old := s.digestID
	s.digestID = 0
	s.mu.Unlock()

	if c == nil {
		return
	}
	if old != 0 {
		c.Remove(old)
	}
	if spec == "" {
		return
	}

	id, err := c.AddFunc(spec, s.sendDigest)
	if err != nil {
		s.log.Error("digest schedule rejected", logx.String("spec", spec), logx.Err(err))
		return
	}

	s.mu.Lock()
	s.digestID = id
	s.mu.Unlock()
	s.log.Info("digest scheduled", logx.String("spec", spec))
}

// sendDigest pushes a summary of today's tasks to the configured chat.
func (s *Service) sendDigest() {
	s.mu.Lock()
	cfg := s.cfg
	scanner := s.scanner
	s.mu.Unlock()

	today := s.now()
	tasks := scanner.Scan(cfg.DefaultTime)

	var lines []string
	for _, t := range tasks {
		if !vault.RelevantOn(t, today) {
			continue
		}
		lines = append(lines, vault.FormatTaskLine(t))
	}

	var b strings.Builder
	b.WriteString("🗓 Today's tasks (")
	b.WriteString(today.Format("2006-01-02"))
	b.WriteString(")\n")
	if len(lines) == 0 {
		b.WriteString("\nNothing scheduled for today.")
	} else {
		for _, l := range lines {
			b.WriteString("\n")
			b.WriteString(l)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.notifier.Send(ctx, kit.Notification{
		Target: kit.ChatTarget{ChatID: cfg.ChatID},
		Text:   b.String(),
	})
	if err != nil {
		s.log.Warn("digest enqueue failed", logx.Err(err))
		return
	}
	s.log.Info("digest queued", logx.Int("tasks", len(lines)))
}
