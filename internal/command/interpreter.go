// Package command maps chat text to pose changes using an ordered table of
// substring rules. The first matching rule wins; there is no tokenizer and
// no longest-match resolution.
package command

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/pose"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// Outcome is the result of interpreting one message.
type Outcome struct {
	Handled bool
	Rule    string
	// Reply is what the avatar answers in the chat history.
	Reply string
	// Err records a pose mutation that did not apply. A matched rule is
	// still Handled when Err is set.
	Err error
}

// Interpreter evaluates the rule table against chat input.
type Interpreter struct {
	registry *skeleton.Registry
	store    *pose.Store
	rules    []Rule
	logger   zerolog.Logger
}

// New creates an interpreter with the default rule table.
func New(registry *skeleton.Registry, store *pose.Store, logger zerolog.Logger) *Interpreter {
	return NewWithRules(registry, store, DefaultRules(), logger)
}

// NewWithRules creates an interpreter evaluating rules in the given order.
func NewWithRules(registry *skeleton.Registry, store *pose.Store, rules []Rule, logger zerolog.Logger) *Interpreter {
	return &Interpreter{
		registry: registry,
		store:    store,
		rules:    rules,
		logger:   logger.With().Str("component", "command").Logger(),
	}
}

// Normalize lower-cases and trims input the way rules expect it.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Match returns the first rule matching text without running it.
func (in *Interpreter) Match(text string) (Rule, bool) {
	norm := Normalize(text)
	if norm == "" {
		return Rule{}, false
	}
	for _, r := range in.rules {
		if r.Matches(norm) {
			return r, true
		}
	}
	return Rule{}, false
}

// Interpret runs the first matching rule. Handled is false when nothing
// matched and the text should go to ordinary chat.
func (in *Interpreter) Interpret(text string) Outcome {
	rule, ok := in.Match(text)
	if !ok {
		return Outcome{}
	}

	out := rule.Handle(in)
	out.Handled = true
	out.Rule = rule.Name

	if out.Err != nil {
		in.logger.Debug().Err(out.Err).Str("rule", rule.Name).Msg("Command matched but pose change did not apply")
	} else {
		in.logger.Debug().Str("rule", rule.Name).Msg("Command applied")
	}
	return out
}

// Rules returns the rule table in evaluation order.
func (in *Interpreter) Rules() []Rule {
	out := make([]Rule, len(in.rules))
	copy(out, in.rules)
	return out
}
