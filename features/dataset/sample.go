package dataset

import (
	"errors"
	"fmt"
	"strings"

	"regcorpus/features/transform"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	SplitTrain = "train"
	SplitVal   = "val"

	DefaultLocale = "nb-NO"
)

var ErrInvalidSample = errors.New("invalid sample")

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Metadata struct {
	Domain           string   `json:"domain"`
	Task             string   `json:"task"`
	SourceIDs        []string `json:"source_ids"`
	FamilyKey        string   `json:"family_key"`
	Split            string   `json:"split,omitempty"`
	CreatedAt        string   `json:"created_at,omitempty"`
	Locale           string   `json:"locale"`
	RuleIDs          []string `json:"rule_ids,omitempty"`
	ConversationType string   `json:"conversation_type,omitempty"`
}

// Sample is one supervised training conversation.
type Sample struct {
	Turns    []Turn   `json:"turns"`
	Metadata Metadata `json:"metadata"`
}

// Domain generates samples for one dataset from structured records.
// Implementations must be deterministic functions of their input.
type Domain interface {
	Name() string
	GenerateSamples(records []transform.Record) ([]Sample, error)
	FamilyKey(s Sample) string
}

// Conversation builds the system/user/assistant turns of a single exchange.
func Conversation(system string, pairs ...string) []Turn {
	turns := []Turn{{Role: RoleSystem, Content: system}}
	for i := 0; i+1 < len(pairs); i += 2 {
		turns = append(turns,
			Turn{Role: RoleUser, Content: pairs[i]},
			Turn{Role: RoleAssistant, Content: pairs[i+1]},
		)
	}
	return turns
}

// Check verifies the structural invariants every persisted sample satisfies.
func (s Sample) Check() error {
	if len(s.Turns) < 2 {
		return fmt.Errorf("%w: %d turns, need at least 2", ErrInvalidSample, len(s.Turns))
	}
	if s.Turns[0].Role != RoleSystem {
		return fmt.Errorf("%w: first turn role is %q, want %q", ErrInvalidSample, s.Turns[0].Role, RoleSystem)
	}
	for i, t := range s.Turns {
		switch t.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidSample, i, t.Role)
		}
		if strings.TrimSpace(t.Content) == "" {
			return fmt.Errorf("%w: turn %d is empty", ErrInvalidSample, i)
		}
	}
	if len(s.Metadata.SourceIDs) == 0 {
		return fmt.Errorf("%w: no source_ids", ErrInvalidSample)
	}
	return nil
}
