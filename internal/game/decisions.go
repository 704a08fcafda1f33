package game

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/magefree/mage-rules-go/internal/game/targeting"
)

// Outcome tells a decision provider whether saying yes is good for the
// player being asked.
type Outcome int

const (
	OutcomeNeutral Outcome = iota
	OutcomeBenefit
	OutcomeDetriment
)

// Action is what a player does with priority.
type Action struct {
	Type rules.ActionType
	// ObjectID is the card to cast or play, or the permanent whose ability
	// is activated.
	ObjectID string
	Ability  string
	Special  rules.SpecialActionType
	// Targets holds one list of target ids per target requirement.
	Targets [][]string
	XValue  int
}

// Pass returns the pass action.
func Pass() Action { return Action{Type: rules.ActionPass} }

// Cast returns an action casting objectID with one target list.
func Cast(objectID string, targets ...string) Action {
	a := Action{Type: rules.ActionCastSpell, ObjectID: objectID}
	if len(targets) > 0 {
		a.Targets = [][]string{targets}
	}
	return a
}

// Activate returns an action activating an ability of objectID.
func Activate(objectID, ability string, targets ...string) Action {
	a := Action{Type: rules.ActionActivateAbility, ObjectID: objectID, Ability: ability}
	if len(targets) > 0 {
		a.Targets = [][]string{targets}
	}
	return a
}

// TapForMana returns an action activating a mana ability.
func TapForMana(objectID, ability string) Action {
	return Action{Type: rules.ActionActivateMana, ObjectID: objectID, Ability: ability}
}

// PlayLand returns the special action playing a land.
func PlayLand(objectID string) Action {
	return Action{Type: rules.ActionSpecialAction, Special: rules.SpecialActionPlayLand, ObjectID: objectID}
}

// ObjectView is the public view of a card or permanent.
type ObjectView struct {
	ID         string
	Name       string
	Controller string
	Tapped     bool
}

// StackView is the public view of a stack object.
type StackView struct {
	ID         string
	Kind       rules.StackItemKind
	Name       string
	SourceID   string
	Controller string
	Targets    []string
}

// PriorityView is what a player sees when asked to act.
type PriorityView struct {
	GameID       string
	PlayerID     string
	ActivePlayer string
	Turn         int
	Phase        rules.Phase
	Step         rules.Step
	// Stack is ordered bottom to top.
	Stack       []StackView
	Hand        []ObjectView
	Battlefield []ObjectView
}

// TargetRequest asks for targets or any other choice among objects.
type TargetRequest struct {
	GameID      string
	PlayerID    string
	SourceID    string
	Requirement targeting.TargetRequirement
	Options     []string
	Min         int
	Max         int
	Prompt      string
}

// UseRequest asks a yes/no question.
type UseRequest struct {
	GameID   string
	PlayerID string
	Outcome  Outcome
	Prompt   string
}

// PaymentRequest asks whether the player pays an optional cost.
type PaymentRequest struct {
	GameID   string
	PlayerID string
	SourceID string
	Cost     string
	Prompt   string
}

// TriggerView describes a triggered ability waiting to be put on the stack.
type TriggerView struct {
	ID          string
	SourceID    string
	Name        string
	Description string
}

// TriggerOrderRequest asks a player to order simultaneous triggers. The
// first id returned goes on the stack first and resolves last.
type TriggerOrderRequest struct {
	GameID   string
	PlayerID string
	Triggers []TriggerView
}

// DecisionProvider supplies a player's choices. Calls may block; the engine
// cancels ctx when the player disconnects or the decision times out and
// then uses the default for that decision. Answers outside the offered
// choices are treated like a missing answer.
type DecisionProvider interface {
	// ChoosePriorityAction defaults to passing.
	ChoosePriorityAction(ctx context.Context, view PriorityView) (Action, error)
	// ChooseTargets defaults to cancelling a cast, and to the first legal
	// options during resolution.
	ChooseTargets(ctx context.Context, req TargetRequest) ([]string, error)
	// ChooseUse defaults to false.
	ChooseUse(ctx context.Context, req UseRequest) (bool, error)
	// ChoosePayment defaults to declining.
	ChoosePayment(ctx context.Context, req PaymentRequest) (bool, error)
	// OrderSimultaneousTriggers defaults to the order presented.
	OrderSimultaneousTriggers(ctx context.Context, req TriggerOrderRequest) ([]string, error)
}

// PassingPlayer always passes and never answers anything else.
type PassingPlayer struct{}

func (PassingPlayer) ChoosePriorityAction(context.Context, PriorityView) (Action, error) {
	return Pass(), nil
}

func (PassingPlayer) ChooseTargets(context.Context, TargetRequest) ([]string, error) {
	return nil, ErrNoDecision
}

func (PassingPlayer) ChooseUse(context.Context, UseRequest) (bool, error) {
	return false, ErrNoDecision
}

func (PassingPlayer) ChoosePayment(context.Context, PaymentRequest) (bool, error) {
	return false, ErrNoDecision
}

func (PassingPlayer) OrderSimultaneousTriggers(context.Context, TriggerOrderRequest) ([]string, error) {
	return nil, ErrNoDecision
}

type scriptEntry struct {
	turn    int
	step    rules.Step
	anyStep bool
	decide  func(PriorityView) (Action, bool)
}

func (e scriptEntry) matches(view PriorityView) bool {
	if e.turn != 0 && e.turn != view.Turn {
		return false
	}
	return e.anyStep || e.step == view.Step
}

// ScriptedPlayer answers from queued decisions, for tests and demos.
// Priority actions are consumed in order: the first queued entry is used
// once its turn and step come up and passes are returned until then. The
// other queues are consumed one answer per question; an empty queue yields
// ErrNoDecision.
type ScriptedPlayer struct {
	mu       sync.Mutex
	script   []scriptEntry
	targets  [][]string
	uses     []bool
	payments []bool
	orders   [][]string
	seen     []PriorityView
}

// NewScriptedPlayer returns an empty script.
func NewScriptedPlayer() *ScriptedPlayer {
	return &ScriptedPlayer{}
}

// At queues action for the given turn and step. Turn 0 matches any turn.
func (p *ScriptedPlayer) At(turn int, step rules.Step, action Action) *ScriptedPlayer {
	return p.AtFunc(turn, step, func(PriorityView) (Action, bool) { return action, true })
}

// AtFunc queues a decision computed from the view; returning false keeps
// the entry queued and passes.
func (p *ScriptedPlayer) AtFunc(turn int, step rules.Step, decide func(PriorityView) (Action, bool)) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, scriptEntry{turn: turn, step: step, decide: decide})
	return p
}

// Whenever queues a decision taken at the first priority, in any turn or
// step, for which decide returns true.
func (p *ScriptedPlayer) Whenever(decide func(PriorityView) (Action, bool)) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, scriptEntry{anyStep: true, decide: decide})
	return p
}

// WithTargets queues an answer for ChooseTargets.
func (p *ScriptedPlayer) WithTargets(ids ...string) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targets = append(p.targets, ids)
	return p
}

// WithUse queues answers for ChooseUse.
func (p *ScriptedPlayer) WithUse(answers ...bool) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uses = append(p.uses, answers...)
	return p
}

// WithPayment queues answers for ChoosePayment.
func (p *ScriptedPlayer) WithPayment(answers ...bool) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, answers...)
	return p
}

// WithTriggerOrder queues an answer for OrderSimultaneousTriggers.
func (p *ScriptedPlayer) WithTriggerOrder(ids ...string) *ScriptedPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, ids)
	return p
}

// Remaining returns the number of queued priority decisions not yet used.
func (p *ScriptedPlayer) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.script)
}

// Views returns every priority view the player was shown.
func (p *ScriptedPlayer) Views() []PriorityView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.seen)
}

func (p *ScriptedPlayer) ChoosePriorityAction(_ context.Context, view PriorityView) (Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, view)
	if len(p.script) == 0 || !p.script[0].matches(view) {
		return Pass(), nil
	}
	action, ok := p.script[0].decide(view)
	if !ok {
		return Pass(), nil
	}
	p.script = p.script[1:]
	return action, nil
}

func (p *ScriptedPlayer) ChooseTargets(context.Context, TargetRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.targets) == 0 {
		return nil, ErrNoDecision
	}
	ids := p.targets[0]
	p.targets = p.targets[1:]
	return ids, nil
}

func (p *ScriptedPlayer) ChooseUse(context.Context, UseRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.uses) == 0 {
		return false, ErrNoDecision
	}
	answer := p.uses[0]
	p.uses = p.uses[1:]
	return answer, nil
}

func (p *ScriptedPlayer) ChoosePayment(context.Context, PaymentRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.payments) == 0 {
		return false, ErrNoDecision
	}
	answer := p.payments[0]
	p.payments = p.payments[1:]
	return answer, nil
}

func (p *ScriptedPlayer) OrderSimultaneousTriggers(context.Context, TriggerOrderRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.orders) == 0 {
		return nil, ErrNoDecision
	}
	ids := p.orders[0]
	p.orders = p.orders[1:]
	return ids, nil
}

// WithTimeout bounds every call to provider by d. A call still running when
// d elapses is abandoned and reported as context.DeadlineExceeded, even if
// the provider ignores its context.
func WithTimeout(provider DecisionProvider, d time.Duration) DecisionProvider {
	if d <= 0 {
		return provider
	}
	return &timeoutProvider{next: provider, timeout: d}
}

type timeoutProvider struct {
	next    DecisionProvider
	timeout time.Duration
}

func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *timeoutProvider) ChoosePriorityAction(ctx context.Context, view PriorityView) (Action, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) (Action, error) {
		return t.next.ChoosePriorityAction(ctx, view)
	})
}

func (t *timeoutProvider) ChooseTargets(ctx context.Context, req TargetRequest) ([]string, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) ([]string, error) {
		return t.next.ChooseTargets(ctx, req)
	})
}

func (t *timeoutProvider) ChooseUse(ctx context.Context, req UseRequest) (bool, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) (bool, error) {
		return t.next.ChooseUse(ctx, req)
	})
}

func (t *timeoutProvider) ChoosePayment(ctx context.Context, req PaymentRequest) (bool, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) (bool, error) {
		return t.next.ChoosePayment(ctx, req)
	})
}

func (t *timeoutProvider) OrderSimultaneousTriggers(ctx context.Context, req TriggerOrderRequest) ([]string, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) ([]string, error) {
		return t.next.OrderSimultaneousTriggers(ctx, req)
	})
}
