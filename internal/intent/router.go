// Package intent maps free-text utterances to command identifiers by
// literal substring lookup in layered phrase tables.
package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jwalitptl/ward-assistant/internal/session"
)

type Kind int

const (
	// KindCommand carries a command to run.
	KindCommand Kind = iota
	// KindSmallTalk carries a canned reply.
	KindSmallTalk
	// KindLoginRequired is the answer to anything else from an anonymous
	// session.
	KindLoginRequired
	// KindUnrecognized is the answer to anything else from an
	// authenticated session.
	KindUnrecognized
)

type Result struct {
	Kind    Kind
	Command string
	Reply   string
}

const (
	loginRequiredReply = "Please login first to access the system."
	unrecognizedReply  = "Sorry, I didn't understand that. Type 'help' to see available commands."
)

// Route resolves an utterance for the session. It has no side effects.
func Route(utterance string, s *session.Session) Result {
	text := strings.ToLower(strings.TrimSpace(utterance))

	if cmd, ok := CommonTable().match(text); ok {
		return Result{Kind: KindCommand, Command: cmd}
	}
	if s.Authenticated() {
		if cmd, ok := RoleTable(s.Role()).match(text); ok {
			return Result{Kind: KindCommand, Command: cmd}
		}
	}
	if text != "" {
		for _, st := range smallTalk {
			if containsWord(text, st.phrases) {
				return Result{Kind: KindSmallTalk, Reply: st.reply}
			}
		}
	}
	if !s.Authenticated() {
		return Result{Kind: KindLoginRequired, Reply: loginRequiredReply}
	}
	return Result{Kind: KindUnrecognized, Reply: unrecognizedReply}
}

func (t Table) match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, e := range t {
		if containsAny(text, e.Phrases) {
			return e.Command, true
		}
	}
	return "", false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// containsWord is containsAny for small talk: a phrase only counts when it
// is not part of a longer word, so "hi" does not fire on "this".
func containsWord(text string, phrases []string) bool {
	for _, p := range phrases {
		for from := 0; from <= len(text)-len(p); {
			i := strings.Index(text[from:], p)
			if i < 0 {
				break
			}
			start, end := from+i, from+i+len(p)
			if !letterBefore(text, start) && !letterAfter(text, end) {
				return true
			}
			from = start + 1
		}
	}
	return false
}

func letterBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r)
}

func letterAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}
