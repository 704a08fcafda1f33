// Package sets holds sample card definitions built only from the engine's
// public card API, and a registry to look them up by name.
package sets

import (
	"fmt"
	"slices"
	"sync"

	"github.com/magefree/mage-rules-go/internal/game"
)

// Factory builds a fresh definition. Definitions are never shared between
// games.
type Factory func() *game.CardDefinition

var (
	mu       sync.RWMutex
	registry = map[string]Factory{
		"Forest":              Forest,
		"Island":              Island,
		"Mountain":            Mountain,
		"Plains":              Plains,
		"Grizzly Bears":       GrizzlyBears,
		"Lightning Bolt":      LightningBolt,
		"Shock":               Shock,
		"Giant Growth":        GiantGrowth,
		"Divination":          Divination,
		"Cancel":              Cancel,
		"Glorious Anthem":     GloriousAnthem,
		"Pacifism":            Pacifism,
		"Opalescence":         Opalescence,
		"Humility":            Humility,
		"Prodigal Pyromancer": ProdigalPyromancer,
		"Soul Warden":         SoulWarden,
		"Sanctuary Ward":      SanctuaryWard,
		"Teferi's Response":   TeferisResponse,
		"Rhystic Scrying":     RhysticScrying,
		"Hidden Ancients":     HiddenAncients,
	}
)

// Register adds or replaces a card factory.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// Create builds the card with the given name.
func Create(name string) (*game.CardDefinition, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("card not found: %s", name)
	}
	return factory(), nil
}

// Names lists the registered cards, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Deck builds one definition per name, in order.
func Deck(names ...string) ([]*game.CardDefinition, error) {
	deck := make([]*game.CardDefinition, 0, len(names))
	for _, name := range names {
		def, err := Create(name)
		if err != nil {
			return nil, err
		}
		deck = append(deck, def)
	}
	return deck, nil
}

// Repeat returns name n times, for building decks.
func Repeat(name string, n int) []string {
	return slices.Repeat([]string{name}, n)
}
