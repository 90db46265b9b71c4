package ingest_test

import (
	"testing"

	"github.com/edgard/resumobot/internal/ingest"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	router := ingest.NewRouter(50, 300)

	tests := []struct {
		name      string
		text      string
		isBot     bool
		wantKind  ingest.ActionKind
		wantLimit int
		wantInfo  ingest.InfoKind
	}{
		{
			name:     "Plain text persists",
			text:     "hello everyone",
			wantKind: ingest.ActionPersist,
		},
		{
			name:     "Bot author ignored even for plain text",
			text:     "automated notice",
			isBot:    true,
			wantKind: ingest.ActionIgnore,
		},
		{
			name:     "Bot author ignored for commands",
			text:     "/sum",
			isBot:    true,
			wantKind: ingest.ActionIgnore,
		},
		{
			name:      "Summarize without argument uses default",
			text:      "/sum",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 50,
		},
		{
			name:      "Summarize with argument",
			text:      "/sum 120",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 120,
		},
		{
			name:      "Summarize argument clamped to maximum",
			text:      "/sum 9999",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 300,
		},
		{
			name:      "Summarize with non-numeric argument falls back to default",
			text:      "/sum abc",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 50,
		},
		{
			name:      "Summarize with non-positive argument falls back to default",
			text:      "/sum -3",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 50,
		},
		{
			name:      "Handle suffix stripped before matching",
			text:      "/sum@mybot 50",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 50,
		},
		{
			name:      "Leading whitespace tolerated",
			text:      "  /sum 10",
			wantKind:  ingest.ActionSummarize,
			wantLimit: 10,
		},
		{
			name:     "Unknown command ignored",
			text:     "/unknown",
			wantKind: ingest.ActionIgnore,
		},
		{
			name:     "Case sensitive matching",
			text:     "/Sum",
			wantKind: ingest.ActionIgnore,
		},
		{
			name:     "Welcome command",
			text:     "/start",
			wantKind: ingest.ActionInformational,
			wantInfo: ingest.InfoWelcome,
		},
		{
			name:     "Help command",
			text:     "/help",
			wantKind: ingest.ActionInformational,
			wantInfo: ingest.InfoHelp,
		},
		{
			name:     "Help with handle suffix",
			text:     "/help@mybot",
			wantKind: ingest.ActionInformational,
			wantInfo: ingest.InfoHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action := router.Classify(ingest.InboundEvent{
				EventID:     1,
				ChatID:      100,
				Text:        tt.text,
				AuthorIsBot: tt.isBot,
			})

			if action.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.text, action.Kind, tt.wantKind)
			}
			if tt.wantKind == ingest.ActionSummarize && action.Limit != tt.wantLimit {
				t.Errorf("Classify(%q).Limit = %d, want %d", tt.text, action.Limit, tt.wantLimit)
			}
			if tt.wantKind == ingest.ActionInformational && action.Info != tt.wantInfo {
				t.Errorf("Classify(%q).Info = %v, want %v", tt.text, action.Info, tt.wantInfo)
			}
		})
	}
}
