// Package app routes chat commands to the quiz engine, the progress store
// and the lesson catalog.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/lessons"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

// Reply texts.
const (
	MsgHelp = "🇬🇧 English Bot\n\n" +
		"Available commands:\n" +
		"/test - Start the test\n" +
		"/progress - Show progress\n" +
		"/lessons - Get recommendations"
	MsgNoHistory     = "📭 You have not taken the test yet"
	MsgTakeTestFirst = "❌ Take the test first: /test"
	MsgLoadFailed    = "⚠️ Could not load your progress"
	MsgNoLessons     = "No materials found for your weak topics yet"
)

// progressTopics is how many weak topics the progress report lists.
const progressTopics = 3

// Command is a recognized conversational command.
type Command int

const (
	CmdNone Command = iota
	CmdHelp
	CmdTest
	CmdProgress
	CmdLessons
)

var commands = map[string]Command{
	"/start":              CmdHelp,
	"/help":               CmdHelp,
	"/test":               CmdTest,
	"start quiz":          CmdTest,
	"/progress":           CmdProgress,
	"show progress":       CmdProgress,
	"/lessons":            CmdLessons,
	"get recommendations": CmdLessons,
}

// ParseCommand recognizes text as a command. A bot-name suffix such as
// "/test@levelup_bot" is ignored.
func ParseCommand(text string) Command {
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.HasPrefix(t, "/") {
		if at := strings.IndexByte(t, '@'); at > 0 {
			t = t[:at]
		}
	}
	return commands[t]
}

// Service handles one inbound message at a time per user.
type Service struct {
	engine   *session.Engine
	progress store.ProgressRepo
	lessons  lessons.Lookup
	log      *zap.Logger
}

// NewService creates a Service. A nil lookup uses lessons.DefaultCatalog.
func NewService(engine *session.Engine, progress store.ProgressRepo, lookup lessons.Lookup, log *zap.Logger) *Service {
	if lookup == nil {
		lookup = lessons.DefaultCatalog()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{engine: engine, progress: progress, lessons: lookup, log: log}
}

// Handle processes text sent by userID and returns the replies to deliver,
// in order. Replies are meaningful even when err is non-nil. Text that is
// neither a command nor an answer yields no replies.
func (s *Service) Handle(ctx context.Context, userID int64, text string) ([]session.Reply, error) {
	switch ParseCommand(text) {
	case CmdHelp:
		return []session.Reply{{Text: MsgHelp}}, nil
	case CmdTest:
		return s.engine.Start(ctx, userID)
	case CmdProgress:
		return s.showProgress(ctx, userID)
	case CmdLessons:
		return s.recommend(ctx, userID)
	}

	if !s.engine.Active(userID) {
		return nil, nil
	}
	return s.engine.Submit(ctx, userID, text)
}

func (s *Service) showProgress(ctx context.Context, userID int64) ([]session.Reply, error) {
	p, err := s.progress.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.CompletedTests == 0) {
		return []session.Reply{{Text: MsgNoHistory}}, nil
	}
	if err != nil {
		return []session.Reply{{Text: MsgLoadFailed}}, fmt.Errorf("load progress: %w", err)
	}
	return []session.Reply{{Text: progressReport(p)}}, nil
}

func progressReport(p *store.UserProgress) string {
	correct, total := p.LastScore()

	var b strings.Builder
	b.WriteString("📈 Your progress:\n")
	fmt.Fprintf(&b, "Level: %s\n", p.Level)
	fmt.Fprintf(&b, "Tests completed: %d\n", p.CompletedTests)
	fmt.Fprintf(&b, "Last result: %d/%d", correct, total)

	topics := p.WeakTopics
	if len(topics) > progressTopics {
		topics = topics[:progressTopics]
	}
	if len(topics) > 0 {
		b.WriteString("\n\nRecommended topics:")
		for _, t := range topics {
			fmt.Fprintf(&b, "\n• %s", t)
		}
	}
	return b.String()
}

func (s *Service) recommend(ctx context.Context, userID int64) ([]session.Reply, error) {
	p, err := s.progress.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(p.WeakTopics) == 0) {
		return []session.Reply{{Text: MsgTakeTestFirst}}, nil
	}
	if err != nil {
		return []session.Reply{{Text: MsgLoadFailed}}, fmt.Errorf("load progress: %w", err)
	}

	recs := lessons.Recommend(s.lessons, p.WeakTopics, lessons.DefaultLimit)
	if len(recs) == 0 {
		s.log.Debug("no lessons for weak topics", zap.Strings("topics", p.WeakTopics))
		return []session.Reply{{Text: MsgNoLessons}}, nil
	}

	var b strings.Builder
	b.WriteString("Recommended materials:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "\n📚 %s: %s", r.Topic, r.URL)
	}
	return []session.Reply{{Text: b.String()}}, nil
}
