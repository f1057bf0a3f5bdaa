package domain

import (
	"fmt"
	"strings"
)

// UnderstoodMessage is the structured understanding of a user message the
// generation backend produces before any rationale is generated. The
// objective field drives every downstream verification; the remaining fields
// give the rationale generator richer context.
type UnderstoodMessage struct {
	// Rephrasing is a clearer restatement of the user's message. May be
	// empty when no rephrasing is useful.
	Rephrasing string `json:"clear_rephrasing_of_message"`

	// WhyAsking explains why the user is asking this at this point in the
	// ongoing chat.
	WhyAsking string `json:"why_is_user_asking_this"`

	// Objective captures the user's overall objectives, implicit or
	// explicit, within this chat.
	Objective string `json:"what_is_user_objective" validate:"required"`

	// SubMessages breaks the message down into simpler sub-messages.
	SubMessages []string `json:"message_decomposition"`
}

// String renders the structured understanding for embedding in downstream
// generation prompts.
func (m UnderstoodMessage) String() string {
	var b strings.Builder
	if m.Rephrasing != "" {
		fmt.Fprintf(&b, "Rephrasing: %s\n", m.Rephrasing)
	}
	fmt.Fprintf(&b, "Why the user is asking: %s\n", m.WhyAsking)
	fmt.Fprintf(&b, "User objective: %s\n", m.Objective)
	if len(m.SubMessages) > 0 {
		fmt.Fprintf(&b, "Sub-messages:\n  - %s", strings.Join(m.SubMessages, "\n  - "))
	}
	return b.String()
}
