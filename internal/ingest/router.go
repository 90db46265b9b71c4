package ingest

import (
	"strconv"
	"strings"
)

// ActionKind classifies what the pipeline should do with an event.
type ActionKind int

const (
	// ActionPersist stores the event text as an ordinary chat message.
	ActionPersist ActionKind = iota
	// ActionSummarize reconstructs recent history and calls the summarizer.
	ActionSummarize
	// ActionInformational sends a canned reply without touching history.
	ActionInformational
	// ActionIgnore produces no side effects at all. Unrecognized
	// slash-prefixed text lands here so command noise never becomes
	// chat history.
	ActionIgnore
)

// InfoKind selects which informational reply to send.
type InfoKind int

const (
	InfoWelcome InfoKind = iota
	InfoHelp
)

// Action is the router's verdict for one event.
type Action struct {
	Kind  ActionKind
	Limit int      // summarization window, set for ActionSummarize
	Info  InfoKind // set for ActionInformational
}

// commandKind tags each registered command with its handler variant.
type commandKind int

const (
	cmdSummarize commandKind = iota
	cmdWelcome
	cmdHelp
)

// commandTable is the static mapping from command token to handler variant.
// Matching is case-sensitive on the exact first whitespace-delimited token,
// after stripping an optional @handle suffix.
var commandTable = map[string]commandKind{
	"/sum":   cmdSummarize,
	"/start": cmdWelcome,
	"/help":  cmdHelp,
}

// Router is a stateless per-event classification function.
type Router struct {
	defaultLimit int
	maxLimit     int
}

// NewRouter creates a Router. defaultLimit is the summarization window used
// when /sum carries no argument; requested windows are clamped to maxLimit.
func NewRouter(defaultLimit, maxLimit int) *Router {
	return &Router{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Classify maps an inbound event to exactly one action.
func (r *Router) Classify(event InboundEvent) Action {
	if event.AuthorIsBot {
		return Action{Kind: ActionIgnore}
	}

	text := strings.TrimSpace(event.Text)
	if !strings.HasPrefix(text, "/") {
		return Action{Kind: ActionPersist}
	}

	fields := strings.Fields(text)
	token := fields[0]
	if at := strings.Index(token, "@"); at >= 0 {
		token = token[:at]
	}

	kind, ok := commandTable[token]
	if !ok {
		return Action{Kind: ActionIgnore}
	}

	switch kind {
	case cmdSummarize:
		limit := r.defaultLimit
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > r.maxLimit {
			limit = r.maxLimit
		}
		return Action{Kind: ActionSummarize, Limit: limit}
	case cmdWelcome:
		return Action{Kind: ActionInformational, Info: InfoWelcome}
	case cmdHelp:
		return Action{Kind: ActionInformational, Info: InfoHelp}
	default:
		return Action{Kind: ActionIgnore}
	}
}
