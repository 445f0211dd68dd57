// Package automation provides the rule engine for Hearth Core.
//
// Rules pair a condition over a state snapshot with an action that builds
// actuator commands. The engine keeps rules ordered by ascending priority
// (stable on ties) and evaluates every rule on every pass: all applicable
// rules fire, there is no short-circuit.
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                   Engine (engine.go)                    │
//	│                                                         │
//	│  Evaluate(snapshot)                                     │
//	│  ┌───────────────────────────────────────────────────┐  │
//	│  │  for each rule, in (priority, insertion) order:   │  │
//	│  │  1. run When(snapshot), recovering panics         │  │
//	│  │  2. if true, run Then(snapshot) for commands      │  │
//	│  │  3. record last-triggered on fire                 │  │
//	│  │  4. append commands (all rules are consulted)     │  │
//	│  └───────────────────────────────────────────────────┘  │
//	│        │                                                │
//	│        ▼ []device.Command                               │
//	│   Hub controller routes to actuator queues              │
//	└─────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Rule: ID, name, priority, When condition, Then action
//   - Engine: ordered rule store with deterministic evaluation
//   - Thresholds: tunables for the standard household rule set
//
// # Determinism
//
// Conditions and actions must be pure functions of the snapshot. The same
// snapshot always yields the same command list in the same order. A rule
// that panics is logged and treated as "did not fire".
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use.
package automation
