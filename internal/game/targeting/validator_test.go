package targeting

import (
	"testing"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	players map[string]PlayerInfo
	objects map[string]ObjectInfo
}

func (f fakeState) FindPlayerForTarget(id string) (PlayerInfo, bool) {
	p, ok := f.players[id]
	return p, ok
}

func (f fakeState) FindObjectForTarget(id string) (ObjectInfo, bool) {
	o, ok := f.objects[id]
	return o, ok
}

func newFakeState() fakeState {
	return fakeState{
		players: map[string]PlayerInfo{
			"alice": {PlayerID: "alice", Life: 20},
			"bob":   {PlayerID: "bob", Life: 20},
			"carol": {PlayerID: "carol", Lost: true},
		},
		objects: map[string]ObjectInfo{
			"bear":   {ID: "bear", Name: "Grizzly Bears", Types: []string{"Creature"}, Zone: rules.ZoneBattlefield, ControllerID: "bob"},
			"forest": {ID: "forest", Name: "Forest", Types: []string{"Land"}, Zone: rules.ZoneBattlefield, ControllerID: "alice"},
			"troll":  {ID: "troll", Name: "Troll", Types: []string{"Creature"}, Abilities: []string{"Hexproof"}, Zone: rules.ZoneBattlefield, ControllerID: "bob"},
			"bolt":   {ID: "bolt", Name: "Lightning Bolt", Types: []string{"Instant"}, Zone: rules.ZoneStack, StackKind: rules.StackItemKindSpell, ControllerID: "bob", Targets: []string{"forest"}},
			"ping":   {ID: "ping", Name: "Ping", Zone: rules.ZoneStack, StackKind: rules.StackItemKindActivated, ControllerID: "bob"},
			"gy":     {ID: "gy", Name: "Dead Bears", Types: []string{"Creature"}, Zone: rules.ZoneGraveyard},
		},
	}
}

func TestValidateTargetTypes(t *testing.T) {
	tv := NewTargetValidator(newFakeState())

	tests := []struct {
		target string
		req    TargetType
		legal  bool
	}{
		{"bear", TargetTypeCreature, true},
		{"bear", TargetTypeAny, true},
		{"alice", TargetTypeAny, true},
		{"alice", TargetTypeCreature, false},
		{"carol", TargetTypePlayer, false},
		{"forest", TargetTypeCreature, false},
		{"forest", TargetTypePermanent, true},
		{"gy", TargetTypeCreature, false},
		{"bolt", TargetTypeSpell, true},
		{"ping", TargetTypeSpell, false},
		{"ping", TargetTypeStackObject, true},
		{"missing", TargetTypeCreature, false},
	}
	for _, tt := range tests {
		t.Run(tt.target+"/"+string(tt.req), func(t *testing.T) {
			err := tv.ValidateTarget("src", "alice", tt.target, Single(tt.req, ""))
			if tt.legal {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, rules.ErrInvalidTarget)
			}
		})
	}
}

func TestHexproofOnlyStopsOpponents(t *testing.T) {
	tv := NewTargetValidator(newFakeState())
	req := Single(TargetTypeCreature, "target creature")

	assert.ErrorIs(t, tv.ValidateTarget("src", "alice", "troll", req), rules.ErrInvalidTarget)
	assert.NoError(t, tv.ValidateTarget("src", "bob", "troll", req))
}

func TestFilterAndLegalTargets(t *testing.T) {
	state := newFakeState()
	tv := NewTargetValidator(state)

	// A stack object an opponent controls that targets a land you control.
	req := Single(TargetTypeStackObject, "target spell or ability that targets a land you control").
		WithFilter(func(ctx Context, c Candidate) bool {
			if c.Object.ControllerID == ctx.Controller {
				return false
			}
			for _, id := range c.Object.Targets {
				if obj, ok := ctx.State.FindObjectForTarget(id); ok && obj.HasType("Land") && obj.ControllerID == ctx.Controller {
					return true
				}
			}
			return false
		})

	legal := tv.LegalTargets("response", "alice", req, []string{"bear", "bolt", "ping", "alice"})
	assert.Equal(t, []string{"bolt"}, legal)
	assert.True(t, tv.HasLegalTargets("response", "alice", req, []string{"bolt"}))
	assert.False(t, tv.HasLegalTargets("response", "bob", req, []string{"bolt", "ping"}))
}

func TestValidateSelection(t *testing.T) {
	tv := NewTargetValidator(newFakeState())
	req := UpTo(2, TargetTypeAny, "")

	require.NoError(t, tv.ValidateSelection("s", "alice", req, []string{"bear", "bob"}))
	require.NoError(t, tv.ValidateSelection("s", "alice", req, nil))
	assert.ErrorIs(t, tv.ValidateSelection("s", "alice", req, []string{"bear", "bob", "alice"}), rules.ErrIllegalAction)
	assert.ErrorIs(t, tv.ValidateSelection("s", "alice", req, []string{"bear", "bear"}), rules.ErrIllegalAction)
	assert.ErrorIs(t, tv.ValidateSelection("s", "alice", Single(TargetTypePlayer, ""), nil), rules.ErrIllegalAction)
	assert.ErrorIs(t, tv.ValidateSelection("s", "alice", req, []string{"forest"}), rules.ErrInvalidTarget)
}

func TestFormatParseTargets(t *testing.T) {
	assert.Equal(t, "a,b", FormatTargets([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, ParseTargets("a,b"))
	assert.Empty(t, ParseTargets(""))
	assert.Equal(t, "0-2 any", UpTo(2, TargetTypeAny, "").String())
}
