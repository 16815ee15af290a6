package model

import "fmt"

// RuleName names an action category guarded by an access rule
type RuleName string

const (
	RuleAnnounce         RuleName = "announce"
	RuleWarrantCreate    RuleName = "warrant.create"
	RuleWarrantDecide    RuleName = "warrant.decide"
	RuleMostWantedCreate RuleName = "most_wanted.create"
	RuleMostWantedDecide RuleName = "most_wanted.decide"
	RuleModeration       RuleName = "moderation"
	RuleCitation         RuleName = "citation"
	RuleArrest           RuleName = "arrest"
	RuleSessionVoteStart RuleName = "session_vote.start"
	RuleSessionVoteView  RuleName = "session_vote.view"
	RuleReactions        RuleName = "reactions"
)

// AllRuleNames returns every rule name the application checks
func AllRuleNames() []RuleName {
	return []RuleName{
		RuleAnnounce,
		RuleWarrantCreate,
		RuleWarrantDecide,
		RuleMostWantedCreate,
		RuleMostWantedDecide,
		RuleModeration,
		RuleCitation,
		RuleArrest,
		RuleSessionVoteStart,
		RuleSessionVoteView,
		RuleReactions,
	}
}

// IsValid checks if the rule name is known
func (n RuleName) IsValid() bool {
	for _, known := range AllRuleNames() {
		if n == known {
			return true
		}
	}
	return false
}

// Actor is the member invoking a command or pressing a button
type Actor struct {
	ID           string
	Name         string
	Capabilities []string // Slack user group IDs
	Elevated     bool     // workspace admin or owner
}

// Mention returns the Slack mention markup for the actor
func (a *Actor) Mention() string {
	return fmt.Sprintf("<@%s>", a.ID)
}

// DisplayName returns the actor's name, falling back to the mention
func (a *Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Mention()
}

// HasCapability reports whether the actor holds tag
func (a *Actor) HasCapability(tag string) bool {
	for _, c := range a.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// AccessRule pairs an action category with the capabilities eligible for it
type AccessRule struct {
	Name         RuleName
	Capabilities []string
}

// Authorize reports whether actor may perform the action guarded by rule:
// elevated actors always may, others need at least one of the rule's
// capabilities. It has no side effects.
func Authorize(actor *Actor, rule AccessRule) bool {
	if actor == nil {
		return false
	}
	if actor.Elevated {
		return true
	}
	for _, tag := range rule.Capabilities {
		if actor.HasCapability(tag) {
			return true
		}
	}
	return false
}

// AccessPolicy is the static set of rules loaded at startup
type AccessPolicy struct {
	rules map[RuleName]AccessRule
}

// NewAccessPolicy builds a policy from rules. A later rule with the same
// name replaces an earlier one.
func NewAccessPolicy(rules ...AccessRule) *AccessPolicy {
	p := &AccessPolicy{rules: make(map[RuleName]AccessRule, len(rules))}
	for _, r := range rules {
		p.rules[r.Name] = r
	}
	return p
}

// Rule returns the rule with the given name. An unconfigured rule has no
// capabilities, which admits elevated actors only.
func (p *AccessPolicy) Rule(name RuleName) AccessRule {
	if p != nil {
		if r, ok := p.rules[name]; ok {
			return r
		}
	}
	return AccessRule{Name: name}
}

// Allows authorizes actor against the named rule
func (p *AccessPolicy) Allows(actor *Actor, name RuleName) bool {
	return Authorize(actor, p.Rule(name))
}
