// Package character persists generated characters: the fixed identity fields
// chosen by the player plus the structured fields produced by the generation
// subsystem.
package character

import (
	"time"

	"github.com/ebonhold/charforge/llm"
)

// Character is one persisted character record. The generated fields hold the
// schema-validated provider responses keyed the way the templates define
// them.
type Character struct {
	ID        string
	Name      string
	Class     string
	Race      string
	Alignment string
	Level     int

	Background llm.ChatResponse
	Equipment  llm.ChatResponse
	Spells     llm.ChatResponse
	Traits     llm.ChatResponse

	CreatedAt time.Time
	UpdatedAt time.Time
}
