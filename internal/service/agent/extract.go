package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

var errNoJSON = errors.New("no json object in completion")

const extractionPrompt = `You are analyzing a conversation to extract client preferences and important notes.

Current client profile:
- Summary: %s
- Preferences: %s
- Notes: %s

Based on the conversation below, extract:
1. Any new preferences (temperature, water type, music, route preferences, etc.)
2. Any important notes to remember (allergies, special requests, timing preferences, etc.)
3. An updated summary if new information is significant

Return ONLY a JSON object with this structure:
{
  "newPreferences": ["preference1", "preference2"],
  "newNotes": ["note1", "note2"],
  "updatedSummary": "updated summary text or null if no update needed"
}`

// profileDelta is what the extraction model reports against a profile snapshot.
type profileDelta struct {
	NewPreferences []string `json:"newPreferences"`
	NewNotes       []string `json:"newNotes"`
	UpdatedSummary *string  `json:"updatedSummary"`
}

// learn extracts a profile delta from the exchange and appends it to the
// stored profile. The snapshot only feeds the prompt; the append merges with
// whatever is stored at write time. If the client has no profile nothing
// happens. If extraction fails only lastInteraction moves.
func (a *Agent) learn(ctx context.Context, clientID, message, reply string) {
	logger := log.FromCtx(ctx)

	snapshot, err := a.loadProfile(ctx, clientID)
	if err != nil {
		logger.Warn().Err(err).Str("client_id", clientID).Msg("profile update skipped")
		return
	}
	if snapshot == nil {
		return
	}

	now := a.now()
	add := core.ProfileAppend{LastInteraction: &now}

	delta, err := a.extract(ctx, *snapshot, message, reply)
	if err != nil {
		logger.Warn().Err(err).Str("client_id", clientID).Msg("profile extraction failed")
	} else {
		add = delta.toAppend(now)
	}

	if err := a.profiles.AppendProfile(ctx, clientID, add); err != nil {
		logger.Error().Err(err).Str("client_id", clientID).Msg("failed to update profile")
	}
}

func (a *Agent) extract(ctx context.Context, p core.RagProfile, message, reply string) (profileDelta, error) {
	prefs, _ := json.Marshal(nonNil(p.Preferences))
	notes, _ := json.Marshal(nonNil(p.Notes))

	msgs := []core.Message{
		{Role: core.RoleSystem, Content: fmt.Sprintf(extractionPrompt, p.Summary, prefs, notes)},
		{Role: core.RoleUser, Content: fmt.Sprintf("Client: %s\nAI: %s", message, reply)},
	}

	out, err := a.ai.Complete(ctx, msgs, extractionOptions)
	if err != nil {
		return profileDelta{}, fmt.Errorf("extraction completion: %w", err)
	}

	var delta profileDelta
	if err := decodeObject(out, &delta); err != nil {
		return profileDelta{}, err
	}
	return delta, nil
}

// toAppend cleans the delta. Lists are never deduplicated and the summary
// is replaced only by a non-empty value.
func (d profileDelta) toAppend(now time.Time) core.ProfileAppend {
	add := core.ProfileAppend{
		Preferences:     clean(d.NewPreferences),
		Notes:           clean(d.NewNotes),
		LastInteraction: &now,
	}
	if d.UpdatedSummary != nil {
		s := strings.TrimSpace(*d.UpdatedSummary)
		if s != "" && !strings.EqualFold(s, "null") {
			add.Summary = &s
		}
	}
	return add
}

// decodeObject parses the first JSON object in s. Models sometimes wrap the
// object in a code fence or a sentence even in JSON mode.
func decodeObject(s string, v any) error {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

func clean(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
