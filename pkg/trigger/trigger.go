// Package trigger decides whether an inbound message should be relayed and
// extracts the command text that remains after the triggering token.
package trigger

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"hookbridge/pkg/event"
)

// Rule labels carried into the outbound payload as relay.matched_rule.
const (
	RuleNone    = "none"
	RuleMention = "mention"
	RuleDM      = "dm"
	RuleTest    = "test"
)

// Broadcast mention tokens recognized when broadcast triggering is enabled.
var broadcastTokens = []string{"@everyone", "@here"}

// PrefixRule returns the rule label for a prefix match.
func PrefixRule(prefix string) string {
	return "prefix:" + prefix
}

// Result is the outcome of evaluating one inbound message.
//
// CleanContent is always defined; when Called is false it echoes the
// trimmed raw content.
type Result struct {
	Called       bool
	Rule         string
	CleanContent string
}

// Settings are the trigger-related knobs read from live configuration.
type Settings struct {
	Prefix                 string
	AllowBroadcastMentions bool
	AllowDirectMessages    bool
}

// Evaluate classifies one inbound message. Pure function of its inputs.
//
// Precedence: prefix, then mention, then the direct-message rule. Messages
// authored by the relay's own identity or by any bot-flagged author never
// trigger.
func Evaluate(msg event.Message, botUserID string, settings Settings) Result {
	content := strings.TrimSpace(msg.Content)
	notCalled := Result{Rule: RuleNone, CleanContent: content}

	if msg.Author.Bot {
		return notCalled
	}
	if botUserID != "" && msg.Author.ID == botUserID {
		return notCalled
	}

	prefix := strings.TrimSpace(settings.Prefix)
	if prefix != "" {
		if content == prefix {
			return Result{Called: true, Rule: PrefixRule(prefix), CleanContent: ""}
		}
		if strings.HasPrefix(content, prefix+" ") {
			remainder := strings.TrimSpace(content[len(prefix)+1:])
			return Result{Called: true, Rule: PrefixRule(prefix), CleanContent: remainder}
		}
	}

	if stripped, matched := stripBotMentions(content, botUserID); matched {
		return Result{Called: true, Rule: RuleMention, CleanContent: stripped}
	}

	if settings.AllowBroadcastMentions {
		if stripped, matched := stripBroadcastMentions(content); matched {
			return Result{Called: true, Rule: RuleMention, CleanContent: stripped}
		}
	}

	if msg.DirectMessage() && settings.AllowDirectMessages {
		return Result{Called: true, Rule: RuleDM, CleanContent: content}
	}

	return notCalled
}

// stripBotMentions removes every canonical and nickname mention of the bot
// and reports whether at least one occurrence was present.
func stripBotMentions(content, botUserID string) (string, bool) {
	if botUserID == "" {
		return content, false
	}

	tokens := []string{"<@" + botUserID + ">", "<@!" + botUserID + ">"}
	matched := false
	for _, token := range tokens {
		if strings.Contains(content, token) {
			matched = true
			content = strings.ReplaceAll(content, token, "")
		}
	}

	if !matched {
		return content, false
	}

	return strings.TrimSpace(content), true
}

// stripBroadcastMentions removes bare @everyone/@here tokens. A token only
// counts when bounded by whitespace, sentence punctuation, or a string end,
// so substrings of longer words (addresses, handles) never trigger.
func stripBroadcastMentions(content string) (string, bool) {
	matched := false
	for _, token := range broadcastTokens {
		stripped, found := stripBareToken(content, token)
		if found {
			matched = true
			content = stripped
		}
	}

	if !matched {
		return content, false
	}

	return strings.TrimSpace(content), true
}

func stripBareToken(content, token string) (string, bool) {
	var builder strings.Builder
	found := false

	for offset := 0; offset < len(content); {
		index := strings.Index(content[offset:], token)
		if index < 0 {
			builder.WriteString(content[offset:])
			break
		}

		start := offset + index
		end := start + len(token)
		if boundedLeft(content, start) && boundedRight(content, end) {
			found = true
			builder.WriteString(content[offset:start])
			offset = end
			continue
		}

		builder.WriteString(content[offset : start+1])
		offset = start + 1
	}

	if !found {
		return content, false
	}

	return builder.String(), true
}

func boundedLeft(content string, start int) bool {
	if start == 0 {
		return true
	}

	previous, _ := utf8.DecodeLastRuneInString(content[:start])
	return isTokenBoundary(previous)
}

func boundedRight(content string, end int) bool {
	if end == len(content) {
		return true
	}

	next, _ := utf8.DecodeRuneInString(content[end:])
	return isTokenBoundary(next)
}

func isTokenBoundary(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(".,!?;:", r)
}
