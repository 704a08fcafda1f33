package server

import (
	"testing"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeZoneChangeEvent(t *testing.T) {
	event := rules.NewZoneChangeEvent("bear-1", "alice", rules.ZoneBattlefield, rules.ZoneGraveyard)
	event.Sequence = 12
	event.Targets = []string{"a", "b"}
	event.Metadata = map[string]string{"cause": "lethal damage"}

	payload, err := EncodeEvent("duel", event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(payload)
	require.NoError(t, err)
	fields := decoded.GetFields()

	assert.Equal(t, "duel", fields["game_id"].GetStringValue())
	assert.Equal(t, string(rules.EventZoneChange), fields["type"].GetStringValue())
	assert.Equal(t, float64(12), fields["sequence"].GetNumberValue())
	assert.Equal(t, "bear-1", fields["target_id"].GetStringValue())
	assert.Equal(t, "BATTLEFIELD", fields["from_zone"].GetStringValue())
	assert.Equal(t, "GRAVEYARD", fields["to_zone"].GetStringValue())

	targets := fields["targets"].GetListValue().AsSlice()
	assert.Equal(t, []any{"a", "b"}, targets)
	assert.Equal(t, "lethal damage", fields["metadata"].GetStructValue().GetFields()["cause"].GetStringValue())
}

func TestEncodeEventOmitsEmptyFields(t *testing.T) {
	event := rules.NewEventWithAmount(rules.EventDamagePermanent, "bear-1", "bolt-1", "bob", 3)

	s, err := EventStruct("duel", event)
	require.NoError(t, err)
	fields := s.GetFields()

	assert.Equal(t, float64(3), fields["amount"].GetNumberValue())
	assert.Equal(t, "bolt-1", fields["source_id"].GetStringValue())
	for _, key := range []string{"from_zone", "to_zone", "targets", "metadata", "flag", "description"} {
		assert.NotContains(t, fields, key)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte("not json"))
	assert.Error(t, err)
}
