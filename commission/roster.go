/*
roster.go - Agent identity resolution

PURPOSE:
  Transactions name agents as free text ("Amanda Garcia, Bob Lee") while
  plan assignments carry canonical names. The roster bridges the two:
  both sides are normalized (trimmed, lowercased) so matching tolerates
  whitespace and capitalization drift between the source system and the
  plan configuration.

MATCHING RULES:
  - "Amanda Garcia", "amanda garcia", "  Amanda Garcia  " are one agent
  - The divisor for the even GCI split is the number of comma-separated
    slots in the raw agent string, matched or not
  - Unmatched non-empty names are reported as skip diagnostics; empty
    slots (stray commas) are ignored silently

SEE ALSO:
  - engine.go: Resolves every transaction agent through the roster
  - plan.go: AgentPlanAssignment, the roster's source of truth
*/
package commission

import "strings"

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeAgentName maps a raw agent name to its matching key.
func NormalizeAgentName(raw string) AgentKey {
	return AgentKey(strings.ToLower(strings.TrimSpace(raw)))
}

// SplitAgents breaks a raw comma-separated agent string into trimmed names,
// preserving empty slots so the caller can count them.
func SplitAgents(agents string) []string {
	parts := strings.Split(agents, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// AgentCount returns the even-split divisor for a transaction: the number
// of comma-separated slots in the raw agent string.
func AgentCount(agents string) int {
	return len(strings.Split(agents, ","))
}

// =============================================================================
// ROSTER - Normalized name -> assignment lookup
// =============================================================================

type Roster struct {
	byKey map[AgentKey]AgentPlanAssignment
}

// NewRoster indexes assignments by normalized agent name. When two
// assignments normalize to the same key the first one wins; later
// duplicates are ignored.
func NewRoster(assignments []AgentPlanAssignment) *Roster {
	r := &Roster{byKey: make(map[AgentKey]AgentPlanAssignment, len(assignments))}
	for _, a := range assignments {
		key := NormalizeAgentName(a.AgentName)
		if key == "" {
			continue
		}
		if _, exists := r.byKey[key]; exists {
			continue
		}
		r.byKey[key] = a
	}
	return r
}

// Resolve looks up the assignment for a raw agent name.
func (r *Roster) Resolve(raw string) (AgentPlanAssignment, bool) {
	a, ok := r.byKey[NormalizeAgentName(raw)]
	return a, ok
}

// Size returns the number of distinct agents on the roster.
func (r *Roster) Size() int { return len(r.byKey) }
