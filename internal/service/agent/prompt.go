package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

const (
	shortDateLayout = "1/2/2006"
	longDateLayout  = "Monday, January 2, 2006"
)

const systemPrompt = `You are an AI concierge for a luxury Black Car / Private Chauffeur service called "Onyx Chauffeur".

Your role is to:
- Handle booking requests professionally and efficiently
- Remember client preferences and provide personalized service
- Coordinate with drivers and dispatch team
- Send booking confirmations and reminders
- Handle payment requests via Stripe links when needed

**Client Context (RAG Profile):**
%s
%s

**Important Guidelines:**
- Always be professional, courteous, and concise
- Use client's preferred name if available
- Reference their preferences when relevant (temperature, water, music, etc.)
- For new bookings, ask for: pickup location, dropoff location, date/time
- Confirm all booking details before finalizing
- If client mentions preferences, remember them for future interactions
- Keep responses brief and actionable (SMS-friendly)
- Use historical context from semantic search to provide personalized recommendations

**Current date:** %s`

func buildSystemPrompt(profile, semantic string, now time.Time) string {
	return fmt.Sprintf(systemPrompt, profile, semantic, now.Format(longDateLayout))
}

// renderProfile renders the structured profile block. A nil profile means
// the client has never been profiled.
func renderProfile(c core.Client, p *core.RagProfile, loc *time.Location) string {
	if p == nil {
		return fmt.Sprintf("Client Name: %s\nPhone: %s\nNo previous interaction history.", c.Name, c.Phone)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Client Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	fmt.Fprintf(&b, "Email: %s\n\n", or(c.Email, "Not provided"))
	fmt.Fprintf(&b, "Summary: %s\n\n", or(p.Summary, "No summary available"))

	b.WriteString("Preferences:\n")
	writeBullets(&b, p.Preferences)
	b.WriteString("\n\nImportant Notes:\n")
	writeBullets(&b, p.Notes)

	last := "Never"
	if p.LastInteraction != nil {
		last = p.LastInteraction.In(loc).Format(shortDateLayout)
	}
	fmt.Fprintf(&b, "\n\nLast Interaction: %s", last)
	return b.String()
}

// renderSemantic returns "" for no snippets so the prompt carries no empty heading.
func renderSemantic(snippets []string) string {
	if len(snippets) == 0 {
		return ""
	}
	return "\n**Relevant History (Semantic Search):**\n• " + strings.Join(snippets, "\n• ")
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- None recorded yet")
		return
	}
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
