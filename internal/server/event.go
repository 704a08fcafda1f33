package server

import (
	"fmt"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventStruct converts a bus event into a protobuf Struct. Empty fields are
// left out so observers only see what the event carries.
func EventStruct(gameID string, event rules.Event) (*structpb.Struct, error) {
	fields := map[string]any{
		"game_id":  gameID,
		"type":     string(event.Type),
		"sequence": event.Sequence,
	}
	putString(fields, "target_id", event.TargetID)
	putString(fields, "source_id", event.SourceID)
	putString(fields, "controller", event.Controller)
	putString(fields, "player_id", event.PlayerID)
	putString(fields, "data", event.Data)
	putString(fields, "description", event.Description)
	if event.Amount != 0 {
		fields["amount"] = event.Amount
	}
	if event.Flag {
		fields["flag"] = true
	}
	if event.FromZone != event.ToZone {
		fields["from_zone"] = event.FromZone.String()
		fields["to_zone"] = event.ToZone.String()
	}
	if len(event.Targets) > 0 {
		targets := make([]any, len(event.Targets))
		for i, id := range event.Targets {
			targets[i] = id
		}
		fields["targets"] = targets
	}
	if len(event.Metadata) > 0 {
		meta := make(map[string]any, len(event.Metadata))
		for k, v := range event.Metadata {
			meta[k] = v
		}
		fields["metadata"] = meta
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	return s, nil
}

// EncodeEvent renders a bus event as the JSON payload sent to observers.
func EncodeEvent(gameID string, event rules.Event) ([]byte, error) {
	s, err := EventStruct(gameID, event)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// DecodeEvent parses a payload produced by EncodeEvent.
func DecodeEvent(payload []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &s, nil
}

func putString(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
