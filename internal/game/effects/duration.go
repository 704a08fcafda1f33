package effects

// Duration represents how long an effect lasts
type Duration string

const (
	// DurationEndOfTurn - Effect expires in the cleanup step
	DurationEndOfTurn Duration = "EndOfTurn"

	// DurationEndOfCombat - Effect expires at end of combat
	DurationEndOfCombat Duration = "EndOfCombat"

	// DurationWhileOnBattlefield - Effect lasts while its source is on the battlefield
	DurationWhileOnBattlefield Duration = "WhileOnBattlefield"

	// DurationOneUse - Effect is discarded after it applies once (replacement shields)
	DurationOneUse Duration = "OneUse"

	// DurationCustom - Effect ends when its Expired predicate says so
	DurationCustom Duration = "Custom"

	// DurationPermanent - Effect lasts indefinitely
	DurationPermanent Duration = "Permanent"
)

// Builder provides a fluent API for creating effect entries from card
// abilities.
type Builder struct {
	sourceID   string
	abilityID  string
	controller string
	duration   Duration
	timestamp  int64
	expired    func(World) bool
}

// NewBuilder creates a builder for effects of sourceID controlled by
// controller. The default duration is end of turn.
func NewBuilder(sourceID, controller string) *Builder {
	return &Builder{sourceID: sourceID, controller: controller, duration: DurationEndOfTurn}
}

// FromAbility marks the effects as generated by a static ability of the
// source. They stop existing when the source loses that ability.
func (b *Builder) FromAbility(abilityID string) *Builder {
	b.abilityID = abilityID
	return b
}

// UntilEndOfTurn sets the duration to end of turn
func (b *Builder) UntilEndOfTurn() *Builder {
	b.duration = DurationEndOfTurn
	return b
}

// UntilEndOfCombat sets the duration to end of combat
func (b *Builder) UntilEndOfCombat() *Builder {
	b.duration = DurationEndOfCombat
	return b
}

// WhileOnBattlefield sets the duration to while source is on battlefield
func (b *Builder) WhileOnBattlefield() *Builder {
	b.duration = DurationWhileOnBattlefield
	return b
}

// Permanent sets the duration to permanent
func (b *Builder) Permanent() *Builder {
	b.duration = DurationPermanent
	return b
}

// Until ends the effect once expired returns true.
func (b *Builder) Until(expired func(World) bool) *Builder {
	b.duration = DurationCustom
	b.expired = expired
	return b
}

// At fixes the timestamp, e.g. to the timestamp of a static ability's
// permanent.
func (b *Builder) At(timestamp int64) *Builder {
	b.timestamp = timestamp
	return b
}

// Entry wraps effect into an entry ready for LayerSystem.Add.
func (b *Builder) Entry(effect ContinuousEffect) Entry {
	return Entry{
		Effect:     effect,
		SourceID:   b.sourceID,
		AbilityID:  b.abilityID,
		Controller: b.controller,
		Duration:   b.duration,
		Timestamp:  b.timestamp,
		Expired:    b.expired,
	}
}

// Entries wraps every effect.
func (b *Builder) Entries(effects ...ContinuousEffect) []Entry {
	out := make([]Entry, 0, len(effects))
	for _, e := range effects {
		out = append(out, b.Entry(e))
	}
	return out
}
