package game

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/magefree/mage-rules-go/internal/config"
	"github.com/magefree/mage-rules-go/internal/game/cards"
	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/effects"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
	"github.com/magefree/mage-rules-go/internal/game/watchers"
	"go.uber.org/zap"
)

// Seat describes one player joining a game.
type Seat struct {
	PlayerID string
	Name     string
	// Deck is put into the library in order; the last card ends on top
	// unless the library is shuffled.
	Deck     []*CardDefinition
	Provider DecisionProvider
	// KeepLibraryOrder skips the opening shuffle.
	KeepLibraryOrder bool
}

// lastKnown is an object as it last existed in a public zone.
type lastKnown struct {
	object          *Object
	characteristics *effects.Snapshot
}

// Game is the state of one game. All mutation happens on the goroutine
// running the game loop; the event bus is the only way other components
// observe it while it runs.
type Game struct {
	ID string

	cfg    config.EngineConfig
	prefs  config.PreferencesConfig
	logger *zap.Logger
	rng    *rand.Rand

	players map[string]*Player
	order   []string

	objects     map[string]*Object
	battlefield *cards.Set
	stackCards  *cards.Set
	exile       *cards.Set
	command     *cards.Set
	lki         map[string]lastKnown
	// leftBattlefield holds the permanents that left in the current batch of
	// simultaneous events; their leave abilities look back in time.
	leftBattlefield []string
	deferredLeaves  []rules.Event
	batching        bool

	stack        *rules.Stack[*StackObject]
	bus          *rules.EventBus
	layers       *effects.LayerSystem
	replacements *effects.ReplacementManager
	costs        *effects.CostModifiers
	triggers     *rules.TriggerManager
	delayed      map[string]*TriggeredAbility
	watchers     *rules.WatcherRegistry
	turn         *rules.TurnManager
	priority     *rules.PriorityTracker
	resolution   *rules.ResolutionContext
	special      *rules.SpecialActionManager
	manaGuard    *rules.ManaAbilityGuard
	counterOps   *counters.CounterOperations
	validator    *targeting.TargetValidator

	sink SnapshotSink

	concedeMu sync.Mutex
	conceding []string

	started   bool
	stepBegun bool
	over      bool
	winner    string
	fatal     error
}

// NewGame creates a game for seats. The first seat is the starting player.
func NewGame(id string, cfg *config.Config, logger *zap.Logger, seats []Seat) (*Game, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(seats) == 0 {
		return nil, errors.New("game needs at least one player")
	}

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger = logger.With(zap.String("game_id", id))

	g := &Game{
		ID:           id,
		cfg:          cfg.Engine,
		prefs:        cfg.Preferences,
		logger:       logger,
		rng:          rand.New(rand.NewSource(seed)),
		players:      make(map[string]*Player, len(seats)),
		objects:      make(map[string]*Object),
		battlefield:  cards.New(),
		stackCards:   cards.New(),
		exile:        cards.New(),
		command:      cards.New(),
		lki:          make(map[string]lastKnown),
		stack:        rules.NewStack[*StackObject](),
		bus:          rules.NewEventBus(),
		layers:       effects.NewLayerSystem(logger),
		replacements: effects.NewReplacementManager(logger),
		costs:        effects.NewCostModifiers(),
		triggers:     rules.NewTriggerManager(),
		delayed:      make(map[string]*TriggeredAbility),
		watchers:     rules.NewWatcherRegistry(),
		resolution:   rules.NewResolutionContext(),
		special:      rules.NewSpecialActionManager(),
		manaGuard:    rules.NewManaAbilityGuard(),
	}
	g.counterOps = counters.NewCounterOperations(g.bus)
	g.validator = targeting.NewTargetValidator(g)
	for _, w := range watchers.Standard() {
		g.watchers.AddWatcher(w)
	}
	g.layers.OnDependencyCycle(func(layer effects.Layer, entryIDs []string) {
		g.logger.Warn("continuous effect dependency cycle, using timestamp order",
			zap.String("layer", layer.String()),
			zap.Strings("effect_ids", entryIDs),
			zap.Error(ErrDependencyCycle))
	})

	for _, seat := range seats {
		pid := strings.TrimSpace(seat.PlayerID)
		if pid == "" {
			return nil, errors.New("seat has no player id")
		}
		if _, dup := g.players[pid]; dup {
			return nil, fmt.Errorf("player %s seated twice", pid)
		}
		name := seat.Name
		if name == "" {
			name = pid
		}
		provider := seat.Provider
		if provider != nil {
			provider = WithTimeout(provider, g.cfg.DecisionTimeout)
		}
		p := newPlayer(pid, name, g.cfg.StartingLife, provider)
		p.keepLibraryOrder = seat.KeepLibraryOrder
		g.players[pid] = p
		g.order = append(g.order, pid)

		for _, def := range seat.Deck {
			if err := def.Validate(); err != nil {
				return nil, fmt.Errorf("deck of %s: %w", pid, err)
			}
			obj := g.newObject(def, pid, rules.ZoneLibrary)
			p.Library.Add(obj.ID)
		}
	}

	g.turn = rules.NewTurnManager(g.order[0])
	g.priority = rules.NewPriorityTracker(g.order)
	g.subscribeTriggers()
	return g, nil
}

// newID returns an id drawn from the game RNG so seeded games are
// reproducible.
func (g *Game) newID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Game) newObject(def *CardDefinition, owner string, zone rules.Zone) *Object {
	obj := &Object{
		ID:           g.newID(),
		Def:          def,
		OwnerID:      owner,
		ControllerID: owner,
		Zone:         zone,
		Timestamp:    g.layers.NextTimestamp(),
		Counters:     counters.NewCounters(),
	}
	g.objects[obj.ID] = obj
	return obj
}

// Bus returns the game's event bus.
func (g *Game) Bus() *rules.EventBus { return g.bus }

// Logger returns the game logger.
func (g *Game) Logger() *zap.Logger { return g.logger }

// Rand returns the game RNG.
func (g *Game) Rand() *rand.Rand { return g.rng }

// Layers returns the continuous effects in force.
func (g *Game) Layers() *effects.LayerSystem { return g.layers }

// Replacements returns the replacement effects in force.
func (g *Game) Replacements() *effects.ReplacementManager { return g.replacements }

// CostModifiers returns the cost modification effects in force.
func (g *Game) CostModifiers() *effects.CostModifiers { return g.costs }

// Triggers returns the trigger manager holding delayed triggers and the
// queue of triggered abilities waiting for the stack.
func (g *Game) Triggers() *rules.TriggerManager { return g.triggers }

// Watcher returns the watcher registered under key.
func (g *Game) Watcher(key string) rules.Watcher { return g.watchers.GetWatcher(key) }

// Validator returns the target validator bound to this game.
func (g *Game) Validator() *targeting.TargetValidator { return g.validator }

// Turn returns the current turn number.
func (g *Game) Turn() int { return g.turn.TurnNumber() }

// Step returns the current step.
func (g *Game) Step() rules.Step { return g.turn.CurrentStep() }

// ActivePlayer returns the player whose turn it is.
func (g *Game) ActivePlayer() string { return g.turn.ActivePlayer() }

// PriorityState returns the state of the priority protocol.
func (g *Game) PriorityState() rules.PriorityState { return g.priority.State() }

// PriorityHolder returns the player holding priority.
func (g *Game) PriorityHolder() string { return g.priority.Holder() }

// IsOver reports whether the game ended.
func (g *Game) IsOver() bool { return g.over }

// Winner returns the winner of a finished game, or "" for a draw.
func (g *Game) Winner() string { return g.winner }

// Player returns the player with the given id.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Players returns every player in turn order.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.players[id])
	}
	return out
}

// PlayersInRange returns the players still in the game in turn order,
// starting with start.
func (g *Game) PlayersInRange(start string) []string {
	idx := slices.Index(g.order, start)
	if idx < 0 {
		idx = 0
	}
	var out []string
	for i := range g.order {
		id := g.order[(idx+i)%len(g.order)]
		if g.players[id].InGame() {
			out = append(out, id)
		}
	}
	return out
}

// Opponents returns the opponents of playerID still in the game.
func (g *Game) Opponents(playerID string) []string {
	var out []string
	for _, id := range g.PlayersInRange(playerID) {
		if id != playerID {
			out = append(out, id)
		}
	}
	return out
}

// Object returns the object with the given id in any zone.
func (g *Game) Object(id string) (*Object, bool) {
	obj, ok := g.objects[id]
	return obj, ok
}

// Battlefield returns the ids of the permanents in timestamp order.
func (g *Game) Battlefield() []string { return g.battlefield.IDs() }

// Exile returns the ids of the exiled cards.
func (g *Game) Exile() []string { return g.exile.IDs() }

// Stack returns the stack objects, bottom first.
func (g *Game) Stack() []*StackObject { return g.stack.List() }

// StackObject returns the stack object with the given id.
func (g *Game) StackObject(id string) (*StackObject, bool) { return g.stack.Get(id) }

// LastKnown returns the characteristics an object had when it last left
// the battlefield or the stack.
func (g *Game) LastKnown(id string) (*effects.Snapshot, bool) {
	lk, ok := g.lki[id]
	if !ok {
		return nil, false
	}
	return lk.characteristics.Clone(), true
}

// Characteristics returns the current characteristics of an object with
// every continuous effect applied.
func (g *Game) Characteristics(id string) (*effects.Snapshot, error) {
	return g.layers.Characteristics(id, g)
}

// Characteristic evaluates a single characteristic, applying layers only as
// far as the field needs.
func (g *Game) Characteristic(id string, field effects.Field) (any, error) {
	return g.layers.Characteristic(id, field, g)
}

// Permanent returns the current characteristics of a permanent.
func (g *Game) Permanent(id string) (*effects.Snapshot, bool) {
	if !g.battlefield.Contains(id) {
		return nil, false
	}
	s, err := g.Characteristics(id)
	if err != nil {
		return nil, false
	}
	return s, true
}

// PermanentsMatching returns the current characteristics of every
// permanent pred accepts, in battlefield order.
func (g *Game) PermanentsMatching(pred func(*effects.Snapshot) bool) []*effects.Snapshot {
	all := g.layers.ComputeAll(g)
	var out []*effects.Snapshot
	for _, id := range g.battlefield.IDs() {
		if s, ok := all[id]; ok && (pred == nil || pred(s)) {
			out = append(out, s)
		}
	}
	return out
}

// BaseCharacteristics implements effects.World.
func (g *Game) BaseCharacteristics(id string) (*effects.Snapshot, bool) {
	obj, ok := g.objects[id]
	if !ok {
		return nil, false
	}
	return obj.base(), true
}

// ObjectIDs implements effects.World. Libraries are hidden zones and are
// left out.
func (g *Game) ObjectIDs() []string {
	ids := g.battlefield.IDs()
	ids = append(ids, g.stackCards.IDs()...)
	for _, pid := range g.order {
		p := g.players[pid]
		ids = append(ids, p.Hand.IDs()...)
		ids = append(ids, p.Graveyard.IDs()...)
	}
	ids = append(ids, g.exile.IDs()...)
	ids = append(ids, g.command.IDs()...)
	return ids
}

// IsOnBattlefield implements effects.World.
func (g *Game) IsOnBattlefield(id string) bool { return g.battlefield.Contains(id) }

// AttachedTo implements effects.World.
func (g *Game) AttachedTo(id string) string {
	if obj, ok := g.objects[id]; ok {
		return obj.AttachedTo
	}
	return ""
}

// FindPlayerForTarget implements targeting.Accessor.
func (g *Game) FindPlayerForTarget(id string) (targeting.PlayerInfo, bool) {
	p, ok := g.players[id]
	if !ok {
		return targeting.PlayerInfo{}, false
	}
	return targeting.PlayerInfo{PlayerID: p.ID, Name: p.Name, Life: p.Life, Lost: p.Lost, Left: p.Left}, true
}

// FindObjectForTarget implements targeting.Accessor. Objects are described
// by their current characteristics; abilities on the stack are found too.
func (g *Game) FindObjectForTarget(id string) (targeting.ObjectInfo, bool) {
	if obj, ok := g.objects[id]; ok {
		s, err := g.Characteristics(id)
		if err != nil {
			return targeting.ObjectInfo{}, false
		}
		info := targeting.ObjectInfo{
			ID:           id,
			Name:         s.Name,
			Types:        s.Types,
			Abilities:    s.Abilities,
			Zone:         obj.Zone,
			ControllerID: s.ControllerID,
			OwnerID:      obj.OwnerID,
		}
		if item, ok := g.stack.Get(id); ok {
			info.StackKind = item.Kind
			info.Targets = item.AllTargets()
			info.ControllerID = item.Controller
		}
		return info, true
	}
	if item, ok := g.stack.Get(id); ok {
		return targeting.ObjectInfo{
			ID:           item.ID,
			Name:         item.Name,
			Zone:         rules.ZoneStack,
			ControllerID: item.Controller,
			StackKind:    item.Kind,
			Targets:      item.AllTargets(),
		}, true
	}
	return targeting.ObjectInfo{}, false
}

// publish stamps an event on the bus and returns it.
func (g *Game) publish(event rules.Event) rules.Event {
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	return g.bus.Publish(event)
}

// abort ends the game because of a fatal engine error.
func (g *Game) abort(err error) {
	if g.fatal != nil {
		return
	}
	g.fatal = err
	g.over = true
	g.logger.Error("game aborted", zap.Error(err))
	evt := rules.NewEvent(rules.EventGameOver, "", "", "")
	evt.Data = "aborted"
	evt.Description = err.Error()
	g.publish(evt)
}

// Err returns the fatal error that aborted the game, if any.
func (g *Game) Err() error { return g.fatal }

// priorityView builds what playerID is shown when asked to act.
func (g *Game) priorityView(playerID string) PriorityView {
	view := PriorityView{
		GameID:       g.ID,
		PlayerID:     playerID,
		ActivePlayer: g.turn.ActivePlayer(),
		Turn:         g.turn.TurnNumber(),
		Phase:        g.turn.CurrentPhase(),
		Step:         g.turn.CurrentStep(),
	}
	for _, item := range g.stack.List() {
		view.Stack = append(view.Stack, StackView{
			ID:         item.ID,
			Kind:       item.Kind,
			Name:       item.Name,
			SourceID:   item.SourceID,
			Controller: item.Controller,
			Targets:    item.AllTargets(),
		})
	}
	if p, ok := g.players[playerID]; ok {
		for _, id := range p.Hand.IDs() {
			view.Hand = append(view.Hand, ObjectView{ID: id, Name: g.objects[id].Name(), Controller: playerID})
		}
	}
	all := g.layers.ComputeAll(g)
	for _, id := range g.battlefield.IDs() {
		s, ok := all[id]
		if !ok {
			continue
		}
		view.Battlefield = append(view.Battlefield, ObjectView{
			ID:         id,
			Name:       s.Name,
			Controller: s.ControllerID,
			Tapped:     g.objects[id].Tapped,
		})
	}
	return view
}
