package automation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/state"
)

// Logger defines the logging interface used by the Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Condition decides whether a rule applies to a snapshot.
// Conditions must be pure: no side effects, no external state.
type Condition func(state.Snapshot) bool

// ActionFunc builds the commands a fired rule issues for a snapshot.
type ActionFunc func(state.Snapshot) []device.Command

// Rule pairs a condition with an action under a priority.
// Lower priority values evaluate earlier.
type Rule struct {
	ID       string
	Name     string
	Priority int
	When     Condition
	Then     ActionFunc
}

// RuleInfo is the read-only metadata view of a registered rule.
type RuleInfo struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Priority      int        `json:"priority"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

// ruleEntry is a registered rule plus its bookkeeping.
type ruleEntry struct {
	Rule
	seq           int
	lastTriggered time.Time
}

// Engine evaluates a prioritized rule set against state snapshots.
//
// Rules are kept sorted by ascending priority; rules sharing a priority
// keep their insertion order. Every evaluation consults every rule, so
// independent rules cannot mask each other.
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	log Logger

	mu      sync.Mutex
	rules   []*ruleEntry
	nextSeq int
}

// NewEngine creates an empty rule engine.
func NewEngine(logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{log: logger}
}

// Add registers a rule, keeping the set ordered by (priority, insertion).
//
// Returns:
//   - error: ErrInvalidRule for incomplete rules, ErrRuleExists for
//     duplicate IDs
func (e *Engine) Add(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if rule.When == nil || rule.Then == nil {
		return fmt.Errorf("%w: rule %s requires a condition and an action", ErrInvalidRule, rule.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.rules {
		if entry.Rule.ID == rule.ID {
			return fmt.Errorf("%w: %s", ErrRuleExists, rule.ID)
		}
	}

	e.rules = append(e.rules, &ruleEntry{Rule: rule, seq: e.nextSeq})
	e.nextSeq++

	// Stable sort keeps insertion order within equal priorities.
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority < e.rules[j].Priority
	})

	e.log.Info("rule registered", "rule_id", rule.ID, "priority", rule.Priority)
	return nil
}

// Evaluate runs every rule against the snapshot in priority order and
// returns the concatenated commands of every rule that fired.
//
// A rule whose condition or action panics is logged and contributes
// nothing; evaluation continues with the next rule.
func (e *Engine) Evaluate(snap state.Snapshot) []device.Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	var commands []device.Command
	for _, entry := range e.rules {
		fired, cmds := e.evaluateRule(entry, snap)
		if !fired {
			continue
		}

		entry.lastTriggered = time.Now().UTC()
		e.log.Debug("rule fired", "rule_id", entry.Rule.ID, "commands", len(cmds))
		commands = append(commands, cmds...)
	}
	return commands
}

// evaluateRule runs one rule, converting a panic in the condition or the
// action into "did not fire".
func (e *Engine) evaluateRule(entry *ruleEntry, snap state.Snapshot) (fired bool, cmds []device.Command) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("rule evaluation panicked, treating as not fired",
				"rule_id", entry.Rule.ID, "panic", r)
			fired = false
			cmds = nil
		}
	}()

	if !entry.When(snap) {
		return false, nil
	}
	return true, entry.Then(snap)
}

// Rules returns metadata for every registered rule in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	infos := make([]RuleInfo, 0, len(e.rules))
	for _, entry := range e.rules {
		info := RuleInfo{
			ID:       entry.Rule.ID,
			Name:     entry.Rule.Name,
			Priority: entry.Priority,
		}
		if !entry.lastTriggered.IsZero() {
			ts := entry.lastTriggered
			info.LastTriggered = &ts
		}
		infos = append(infos, info)
	}
	return infos
}
