package effects

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/game/rules"
)

// ReplacementEffect watches for an event and modifies or replaces it before
// it happens. A replacement effect gets one opportunity per event.
type ReplacementEffect interface {
	ID() string
	SourceID() string
	Duration() Duration

	// ChecksEventType is the cheap first filter.
	ChecksEventType(eventType rules.EventType) bool

	// Applies checks the specific event.
	Applies(event rules.Event) bool

	// ReplaceEvent returns the modified event. When the second result is
	// true the event does not happen at all and no further effects apply.
	ReplaceEvent(event rules.Event) (rules.Event, bool)

	// IsSelfReplacement marks effects of a resolving spell that replace part
	// of its own effect; they are applied before any other.
	IsSelfReplacement() bool

	// HasSelfScope allows the effect to apply to events caused by its own
	// source, e.g. "enters the battlefield" replacements.
	HasSelfScope() bool
}

// BaseReplacementEffect provides common functionality for replacement effects
type BaseReplacementEffect struct {
	id              string
	sourceID        string
	duration        Duration
	selfReplacement bool
	selfScope       bool
}

// NewBaseReplacementEffect creates a new base replacement effect
func NewBaseReplacementEffect(sourceID string, duration Duration, selfReplacement, selfScope bool) *BaseReplacementEffect {
	source := strings.TrimSpace(sourceID)
	seed := fmt.Sprintf("%s|replacement|%s|%t|%t|%d", source, duration, selfReplacement, selfScope, uuid.New().ID())
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()

	return &BaseReplacementEffect{
		id:              id,
		sourceID:        source,
		duration:        duration,
		selfReplacement: selfReplacement,
		selfScope:       selfScope,
	}
}

// ID returns the unique identifier
func (e *BaseReplacementEffect) ID() string { return e.id }

// SourceID returns the source ID
func (e *BaseReplacementEffect) SourceID() string { return e.sourceID }

// Duration returns the duration
func (e *BaseReplacementEffect) Duration() Duration { return e.duration }

// IsSelfReplacement returns whether this is a self-replacement effect
func (e *BaseReplacementEffect) IsSelfReplacement() bool { return e.selfReplacement }

// HasSelfScope returns whether this effect has self-scope
func (e *BaseReplacementEffect) HasSelfScope() bool { return e.selfScope }

// PreventionEffect is a replacement effect that prevents damage. A shield
// of zero means the effect prevents without limit.
type PreventionEffect interface {
	ReplacementEffect

	GetShield() int
	ReduceShield(amount int) int
	// Exhausted reports a limited shield that has been used up.
	Exhausted() bool
}

// BasePreventionEffect provides common functionality for prevention effects
type BasePreventionEffect struct {
	*BaseReplacementEffect
	limited bool
	shield  int
}

// NewBasePreventionEffect creates a new base prevention effect
func NewBasePreventionEffect(sourceID string, duration Duration, shield int) *BasePreventionEffect {
	return &BasePreventionEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false, false),
		limited:               shield > 0,
		shield:                shield,
	}
}

// GetShield returns the remaining shield amount
func (e *BasePreventionEffect) GetShield() int { return e.shield }

// ReduceShield uses up to amount of the shield and returns how much was
// used. Unlimited effects report 0.
func (e *BasePreventionEffect) ReduceShield(amount int) int {
	if !e.limited || amount <= 0 {
		return 0
	}
	reduced := min(amount, e.shield)
	e.shield -= reduced
	return reduced
}

// Exhausted implements PreventionEffect.
func (e *BasePreventionEffect) Exhausted() bool { return e.limited && e.shield <= 0 }

// DamagePreventionEffect prevents damage from being dealt
// Example: "Prevent the next 3 damage that would be dealt to target creature"
type DamagePreventionEffect struct {
	*BasePreventionEffect
	targetID    string // empty = any recipient
	sourceCheck string // empty = any source
}

// NewDamagePreventionEffect creates a damage prevention effect. amount 0
// prevents all damage.
func NewDamagePreventionEffect(sourceID, targetID, sourceCheck string, amount int, duration Duration) *DamagePreventionEffect {
	return &DamagePreventionEffect{
		BasePreventionEffect: NewBasePreventionEffect(sourceID, duration, amount),
		targetID:             strings.TrimSpace(targetID),
		sourceCheck:          strings.TrimSpace(sourceCheck),
	}
}

// ChecksEventType checks if this effect cares about damage events
func (e *DamagePreventionEffect) ChecksEventType(eventType rules.EventType) bool {
	return eventType == rules.EventDamagePlayer || eventType == rules.EventDamagePermanent
}

// Applies checks if this effect applies to the given damage event
func (e *DamagePreventionEffect) Applies(event rules.Event) bool {
	if !e.ChecksEventType(event.Type) || e.Exhausted() {
		return false
	}
	if e.targetID != "" && event.TargetID != e.targetID {
		return false
	}
	if e.sourceCheck != "" && event.SourceID != e.sourceCheck {
		return false
	}
	return event.Amount > 0
}

// ReplaceEvent prevents or reduces damage
func (e *DamagePreventionEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	if !e.limited {
		event.Amount = 0
		return event, true
	}
	event.Amount -= e.ReduceShield(event.Amount)
	return event, event.Amount == 0
}

// ZoneChangeMatch selects zone changes. Empty fields match anything.
type ZoneChangeMatch struct {
	ObjectID   string
	Controller string
	From       []rules.Zone
	To         []rules.Zone
}

func (m ZoneChangeMatch) matches(event rules.Event) bool {
	if m.ObjectID != "" && event.TargetID != m.ObjectID {
		return false
	}
	if m.Controller != "" && event.Controller != m.Controller {
		return false
	}
	if len(m.From) > 0 && !slices.Contains(m.From, event.FromZone) {
		return false
	}
	return len(m.To) == 0 || slices.Contains(m.To, event.ToZone)
}

// ZoneChangeReplacementEffect replaces where an object goes
// Example: "If a creature would die, exile it instead"
type ZoneChangeReplacementEffect struct {
	*BaseReplacementEffect
	match   ZoneChangeMatch
	newZone rules.Zone
}

// NewZoneChangeReplacementEffect creates a zone change replacement effect
func NewZoneChangeReplacementEffect(sourceID string, match ZoneChangeMatch, newZone rules.Zone, duration Duration, selfScope bool) *ZoneChangeReplacementEffect {
	return &ZoneChangeReplacementEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false, selfScope),
		match:                 match,
		newZone:               newZone,
	}
}

// ChecksEventType checks if this effect cares about zone change events
func (e *ZoneChangeReplacementEffect) ChecksEventType(eventType rules.EventType) bool {
	return eventType == rules.EventZoneChange
}

// Applies checks if this effect applies to the given zone change event
func (e *ZoneChangeReplacementEffect) Applies(event rules.Event) bool {
	return e.ChecksEventType(event.Type) && event.ToZone != e.newZone && e.match.matches(event)
}

// ReplaceEvent changes the destination zone
func (e *ZoneChangeReplacementEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	event.Metadata["replacement_effect"] = e.ID()
	event.Metadata["original_zone"] = event.ToZone.String()
	event.ToZone = e.newZone
	return event, false
}

// DoubleAmountReplacementEffect doubles an amount in an event
// Example: "If you would gain life, you gain twice that much life instead"
type DoubleAmountReplacementEffect struct {
	*BaseReplacementEffect
	eventTypes   []rules.EventType
	targetID     string
	controllerID string
}

// NewDoubleAmountReplacementEffect creates a doubling replacement effect
func NewDoubleAmountReplacementEffect(sourceID string, eventTypes []rules.EventType, targetID, controllerID string, duration Duration) *DoubleAmountReplacementEffect {
	return &DoubleAmountReplacementEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false, false),
		eventTypes:            slices.Clone(eventTypes),
		targetID:              strings.TrimSpace(targetID),
		controllerID:          strings.TrimSpace(controllerID),
	}
}

// ChecksEventType checks if this effect cares about the given event type
func (e *DoubleAmountReplacementEffect) ChecksEventType(eventType rules.EventType) bool {
	return slices.Contains(e.eventTypes, eventType)
}

// Applies checks if this effect applies to the given event
func (e *DoubleAmountReplacementEffect) Applies(event rules.Event) bool {
	if !e.ChecksEventType(event.Type) {
		return false
	}
	if e.targetID != "" && event.TargetID != e.targetID {
		return false
	}
	return e.controllerID == "" || event.Controller == e.controllerID
}

// ReplaceEvent doubles the amount
func (e *DoubleAmountReplacementEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	event.Amount *= 2
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	event.Metadata["doubled_by"] = e.ID()
	return event, false
}
