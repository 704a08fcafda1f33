package game

import (
	"slices"

	"github.com/magefree/mage-rules-go/internal/game/cards"
	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/mana"
	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// Object is a card or token in one zone. Moving it to another zone creates
// a new Object with a new id; the old id stops resolving.
type Object struct {
	ID           string
	Def          *CardDefinition
	OwnerID      string
	ControllerID string
	Zone         rules.Zone
	Timestamp    int64
	Token        bool

	Tapped           bool
	SummoningSick    bool
	Damage           int
	DeathtouchDamage bool // some of Damage came from a deathtouch source
	AttachedTo       string
	Counters         *counters.Counters
}

// Name returns the printed name.
func (o *Object) Name() string {
	if o == nil || o.Def == nil {
		return ""
	}
	return o.Def.Name
}

// base returns the object's characteristics before continuous effects.
func (o *Object) base() *effects.Snapshot {
	d := o.Def
	s := &effects.Snapshot{
		ObjectID:     o.ID,
		Name:         d.Name,
		OwnerID:      o.OwnerID,
		ControllerID: o.ControllerID,
		Zone:         o.Zone,
		ManaCost:     d.ManaCost,
		Text:         d.Text,
		Types:        slices.Clone(d.Types),
		Subtypes:     slices.Clone(d.Subtypes),
		Supertypes:   slices.Clone(d.Supertypes),
		Colors:       d.colors(),
		Abilities:    d.abilityNames(),
		Power:        d.Power,
		Toughness:    d.Toughness,
		HasPT:        d.HasType("Creature"),
	}
	if o.Counters != nil {
		s.CounterPower, s.CounterToughness = o.Counters.Boost()
	}
	return s
}

func (o *Object) copyObject() *Object {
	c := *o
	c.Counters = o.Counters.Copy()
	return &c
}

// Player is a participant in a game.
type Player struct {
	ID        string
	Name      string
	Life      int
	Poison    int
	Library   *cards.Set
	Hand      *cards.Set
	Graveyard *cards.Set
	ManaPool  *mana.ManaPool
	Lost      bool
	Left      bool

	drewFromEmptyLibrary bool
	keepLibraryOrder     bool
	provider             DecisionProvider
}

// InGame reports whether the player still takes part in the game.
func (p *Player) InGame() bool {
	return p != nil && !p.Lost && !p.Left
}

func newPlayer(id, name string, life int, provider DecisionProvider) *Player {
	if provider == nil {
		provider = PassingPlayer{}
	}
	return &Player{
		ID:        id,
		Name:      name,
		Life:      life,
		Library:   cards.NewOwned(id),
		Hand:      cards.NewOwned(id),
		Graveyard: cards.NewOwned(id),
		ManaPool:  mana.NewManaPool(),
		provider:  provider,
	}
}
