package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/resumobot/internal/bot/handlers"
	"github.com/edgard/resumobot/internal/config"
	"github.com/edgard/resumobot/internal/database"
	"github.com/edgard/resumobot/internal/history"
	"github.com/edgard/resumobot/internal/ingest"
)

type fakeStore struct {
	markerCreated bool
	markerErr     error
	saved         []database.StoredMessage
	records       []database.StoredMessage
	recordsErr    error
	markerCalls   int

	markerHadDeadline bool
	saveHadDeadline   bool
	readHadDeadline   bool
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) CreateEventMarker(ctx context.Context, _ int64, _, _ time.Time) (bool, error) {
	f.markerCalls++
	_, f.markerHadDeadline = ctx.Deadline()
	return f.markerCreated, f.markerErr
}

func (f *fakeStore) SaveMessage(ctx context.Context, m *database.StoredMessage) error {
	_, f.saveHadDeadline = ctx.Deadline()
	f.saved = append(f.saved, *m)
	return nil
}

func (f *fakeStore) GetRecentMessages(ctx context.Context, _ int64, _ int) ([]database.StoredMessage, error) {
	_, f.readHadDeadline = ctx.Deadline()
	return f.records, f.recordsErr
}

func (f *fakeStore) PurgeExpired(context.Context, time.Time) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeStore) RunMaintenance(context.Context) error { return nil }

type sentMessage struct {
	chatID   int64
	text     string
	markdown bool
}

type fakeSender struct {
	sent        []sentMessage
	failPattern string // sends containing this substring fail
	failOnce    bool
	failed      bool
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, markdown bool) error {
	if f.failPattern != "" && strings.Contains(text, f.failPattern) && (!f.failOnce || !f.failed) {
		f.failed = true
		return errors.New("telegram API error")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, markdown: markdown})
	return nil
}

type fakeSummarizer struct {
	summary    string
	err        error
	transcript string
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string) (string, error) {
	f.transcript = transcript
	return f.summary, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Database:  config.DatabaseConfig{OpTimeout: 5 * time.Second},
		Retention: config.RetentionConfig{MarkerTTL: 24 * time.Hour, MessageTTL: 168 * time.Hour},
		Summary:   config.SummaryConfig{DefaultLimit: 50, MaxLimit: 300},
		Messages: config.MessagesConfig{
			ReadingHistory:   "Reading the chat history...",
			NothingToSum:     "There is nothing to summarize yet.",
			SummarizerFailed: "Sorry, summarization failed.",
			Welcome:          "Welcome!",
			Help:             "Help text.",
		},
	}
}

type pipeline struct {
	store      *fakeStore
	sender     *fakeSender
	summarizer *fakeSummarizer
	handle     func(*models.Update)
}

func newPipeline(t *testing.T, store *fakeStore, sender *fakeSender, summarizer *fakeSummarizer) pipeline {
	t.Helper()
	cfg := testConfig()
	deps := handlers.HandlerDeps{
		Logger:     testLogger(),
		Config:     cfg,
		Store:      store,
		Guard:      ingest.NewGuard(store, cfg.Retention.MarkerTTL, testLogger()),
		Router:     ingest.NewRouter(cfg.Summary.DefaultLimit, cfg.Summary.MaxLimit),
		Reconciler: history.NewReconciler(store, testLogger()),
		Summarizer: summarizer,
		Sender:     sender,
	}
	handler := handlers.NewUpdateHandler(deps)
	return pipeline{
		store:      store,
		sender:     sender,
		summarizer: summarizer,
		handle: func(u *models.Update) {
			handler(context.Background(), nil, u)
		},
	}
}

func textUpdate(eventID int64, text string) *models.Update {
	return &models.Update{
		ID: eventID,
		Message: &models.Message{
			ID:   7,
			Date: int(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Unix()),
			Chat: models.Chat{ID: 100},
			From: &models.User{FirstName: "Alice"},
			Text: text,
		},
	}
}

func TestPipelinePersistsPlainText(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, &fakeStore{markerCreated: true}, &fakeSender{}, &fakeSummarizer{})
	p.handle(textUpdate(1, "hello everyone"))

	if len(p.store.saved) != 1 {
		t.Fatalf("saved %d messages, want 1", len(p.store.saved))
	}
	got := p.store.saved[0]
	if got.ChatID != 100 || got.MessageID != 7 || got.AuthorName != "Alice" || got.Text != "hello everyone" {
		t.Errorf("saved message = %+v", got)
	}
	if want := got.OccurredAt.Add(168 * time.Hour); !got.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
	if len(p.sender.sent) != 0 {
		t.Errorf("sent %d messages, want 0 for plain persist", len(p.sender.sent))
	}
}

func TestPipelineSkipsRedelivery(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, &fakeStore{markerCreated: false}, &fakeSender{}, &fakeSummarizer{})
	p.handle(textUpdate(1, "hello again"))

	if len(p.store.saved) != 0 {
		t.Errorf("saved %d messages, want 0 on redelivery", len(p.store.saved))
	}
	if len(p.sender.sent) != 0 {
		t.Errorf("sent %d messages, want 0 on redelivery", len(p.sender.sent))
	}
}

func TestPipelineFailsOpenOnGuardFault(t *testing.T) {
	t.Parallel()

	store := &fakeStore{markerErr: errors.New("database is locked")}
	p := newPipeline(t, store, &fakeSender{}, &fakeSummarizer{})
	p.handle(textUpdate(1, "hello"))

	if len(p.store.saved) != 1 {
		t.Errorf("saved %d messages, want 1 when guard fails open", len(p.store.saved))
	}
}

func TestPipelineDropsMalformedBeforeAdmission(t *testing.T) {
	t.Parallel()

	store := &fakeStore{markerCreated: true}
	p := newPipeline(t, store, &fakeSender{}, &fakeSummarizer{})

	p.handle(&models.Update{ID: 1})
	p.handle(&models.Update{ID: 2, Message: &models.Message{Chat: models.Chat{ID: 100}, From: &models.User{FirstName: "A"}}})
	p.handle(&models.Update{ID: 3, Message: &models.Message{Chat: models.Chat{ID: 100}, Text: "no sender"}})

	if store.markerCalls != 0 {
		t.Errorf("guard consulted %d times for malformed updates, want 0", store.markerCalls)
	}
}

func TestPipelineSummarizes(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)
	store := &fakeStore{
		markerCreated: true,
		records: []database.StoredMessage{
			{ChatID: 100, MessageID: 2, AuthorName: "bob", Text: "hi", OccurredAt: at.Add(time.Minute)},
			{ChatID: 100, MessageID: 1, AuthorName: "alice", Text: "hello", OccurredAt: at},
		},
	}
	summarizer := &fakeSummarizer{summary: "- greetings exchanged"}
	p := newPipeline(t, store, &fakeSender{}, summarizer)

	p.handle(textUpdate(1, "/sum 10"))

	if !strings.Contains(summarizer.transcript, "<logs>") {
		t.Errorf("transcript = %q, want rendered logs markup", summarizer.transcript)
	}
	if !strings.Contains(summarizer.transcript, `u="alice"`) {
		t.Errorf("transcript = %q, want alice's message", summarizer.transcript)
	}

	if len(p.sender.sent) != 2 {
		t.Fatalf("sent %d messages, want ack + summary", len(p.sender.sent))
	}
	if p.sender.sent[0].text != "Reading the chat history..." {
		t.Errorf("first send = %q, want acknowledgement", p.sender.sent[0].text)
	}
	if p.sender.sent[1].text != "- greetings exchanged" || !p.sender.sent[1].markdown {
		t.Errorf("second send = %+v, want markdown summary", p.sender.sent[1])
	}
}

func TestPipelineSummarizeEmptyHistory(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, &fakeStore{markerCreated: true}, &fakeSender{}, &fakeSummarizer{summary: "unused"})
	p.handle(textUpdate(1, "/sum"))

	if len(p.sender.sent) != 2 {
		t.Fatalf("sent %d messages, want ack + empty notice", len(p.sender.sent))
	}
	if p.sender.sent[1].text != "There is nothing to summarize yet." {
		t.Errorf("second send = %q, want empty-history notice", p.sender.sent[1].text)
	}
	if p.summarizer.transcript != "" {
		t.Error("summarizer called on empty history")
	}
}

func TestPipelineSummarizeStoreFaultDegradesToEmpty(t *testing.T) {
	t.Parallel()

	store := &fakeStore{markerCreated: true, recordsErr: errors.New("disk I/O error")}
	p := newPipeline(t, store, &fakeSender{}, &fakeSummarizer{summary: "unused"})
	p.handle(textUpdate(1, "/sum"))

	if len(p.sender.sent) != 2 || p.sender.sent[1].text != "There is nothing to summarize yet." {
		t.Fatalf("sends = %+v, want ack + empty-history notice", p.sender.sent)
	}
}

func TestPipelineSummarizerFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		markerCreated: true,
		records: []database.StoredMessage{
			{ChatID: 100, MessageID: 1, AuthorName: "alice", Text: "hello", OccurredAt: time.Now().UTC()},
		},
	}
	p := newPipeline(t, store, &fakeSender{}, &fakeSummarizer{err: errors.New("model overloaded")})
	p.handle(textUpdate(1, "/sum"))

	if len(p.sender.sent) != 2 {
		t.Fatalf("sent %d messages, want ack + apology", len(p.sender.sent))
	}
	if p.sender.sent[1].text != "Sorry, summarization failed." {
		t.Errorf("second send = %q, want apology", p.sender.sent[1].text)
	}
}

func TestPipelineMarkdownFallback(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		markerCreated: true,
		records: []database.StoredMessage{
			{ChatID: 100, MessageID: 1, AuthorName: "alice", Text: "hello", OccurredAt: time.Now().UTC()},
		},
	}
	sender := &fakeSender{failPattern: "- summary", failOnce: true}
	p := newPipeline(t, store, sender, &fakeSummarizer{summary: "- summary *with markup"})
	p.handle(textUpdate(1, "/sum"))

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want ack + plain retry", len(sender.sent))
	}
	last := sender.sent[len(sender.sent)-1]
	if last.text != "- summary *with markup" || last.markdown {
		t.Errorf("final send = %+v, want plain-text summary", last)
	}
}

func TestPipelineInformationalReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		want    string
	}{
		{"/start", "Welcome!"},
		{"/help", "Help text."},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			t.Parallel()

			p := newPipeline(t, &fakeStore{markerCreated: true}, &fakeSender{}, &fakeSummarizer{})
			p.handle(textUpdate(1, tt.command))

			if len(p.sender.sent) != 1 || p.sender.sent[0].text != tt.want {
				t.Errorf("sends = %+v, want single %q", p.sender.sent, tt.want)
			}
			if len(p.store.saved) != 0 {
				t.Errorf("saved %d messages, want 0 for informational command", len(p.store.saved))
			}
		})
	}
}

func TestPipelineBoundsStoreCalls(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		markerCreated: true,
		records: []database.StoredMessage{
			{ChatID: 100, MessageID: 1, AuthorName: "alice", Text: "hello", OccurredAt: time.Now().UTC()},
		},
	}
	p := newPipeline(t, store, &fakeSender{}, &fakeSummarizer{summary: "- ok"})

	p.handle(textUpdate(1, "hello"))
	if !store.markerHadDeadline {
		t.Error("marker write ran without a deadline")
	}
	if !store.saveHadDeadline {
		t.Error("message save ran without a deadline")
	}

	p.handle(textUpdate(2, "/sum"))
	if !store.readHadDeadline {
		t.Error("history read ran without a deadline")
	}
}

func TestPipelineIgnoresUnknownCommand(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, &fakeStore{markerCreated: true}, &fakeSender{}, &fakeSummarizer{})
	p.handle(textUpdate(1, "/unknown stuff"))

	if len(p.store.saved) != 0 || len(p.sender.sent) != 0 {
		t.Errorf("saved=%d sent=%d, want no side effects", len(p.store.saved), len(p.sender.sent))
	}
}
