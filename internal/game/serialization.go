package game

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/magefree/mage-rules-go/internal/game/rules"
	"golang.org/x/crypto/blake2b"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// SnapshotSink receives a snapshot of the game at the end of every turn.
// Implementations run on the game goroutine and must not keep the game
// waiting for long.
type SnapshotSink interface {
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Snapshot is a serializable copy of the public game state. Zones keep
// their order, so two games played the same way with the same seed produce
// identical snapshots.
type Snapshot struct {
	Version        int
	GameID         string
	Turn           int
	Phase          string
	Step           string
	ActivePlayer   string
	PriorityHolder string
	PriorityState  string
	Over           bool
	Winner         string

	Players     []PlayerSnapshot
	Battlefield []string
	Exile       []string
	Command     []string
	Objects     []ObjectSnapshot
	Stack       []StackSnapshot
	// Effects lists the ids of the continuous effects in force.
	Effects []string

	// TakenAt is left out of the checksum.
	TakenAt time.Time
}

// PlayerSnapshot is one player in a Snapshot.
type PlayerSnapshot struct {
	ID        string
	Name      string
	Life      int
	Poison    int
	Lost      bool
	Left      bool
	Mana      string
	Library   []string
	Hand      []string
	Graveyard []string
}

// ObjectSnapshot is one object in a Snapshot. Permanents carry their
// current power and toughness, other objects their printed values.
type ObjectSnapshot struct {
	ID            string
	Name          string
	OwnerID       string
	ControllerID  string
	Zone          string
	Power         int
	Toughness     int
	Damage        int
	Tapped        bool
	SummoningSick bool
	Token         bool
	AttachedTo    string
	Counters      []CounterSnapshot
}

// CounterSnapshot is a number of counters of one kind.
type CounterSnapshot struct {
	Name  string
	Count int
}

// StackSnapshot is one stack object, bottom of the stack first.
type StackSnapshot struct {
	ID         string
	Kind       string
	Name       string
	SourceID   string
	Controller string
	Targets    []string
}

// Snapshot captures the current game state.
func (g *Game) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:        SnapshotVersion,
		GameID:         g.ID,
		Turn:           g.turn.TurnNumber(),
		Phase:          g.turn.CurrentPhase().String(),
		Step:           g.turn.CurrentStep().String(),
		ActivePlayer:   g.turn.ActivePlayer(),
		PriorityHolder: g.priority.Holder(),
		PriorityState:  g.priority.State().String(),
		Over:           g.over,
		Winner:         g.winner,
		Battlefield:    g.battlefield.IDs(),
		Exile:          g.exile.IDs(),
		Command:        g.command.IDs(),
		TakenAt:        time.Now().UTC(),
	}

	var ordered []string
	for _, pid := range g.order {
		p := g.players[pid]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Life:      p.Life,
			Poison:    p.Poison,
			Lost:      p.Lost,
			Left:      p.Left,
			Mana:      p.ManaPool.String(),
			Library:   p.Library.IDs(),
			Hand:      p.Hand.IDs(),
			Graveyard: p.Graveyard.IDs(),
		})
		ordered = append(ordered, p.Library.IDs()...)
		ordered = append(ordered, p.Hand.IDs()...)
		ordered = append(ordered, p.Graveyard.IDs()...)
	}
	ordered = append(ordered, g.battlefield.IDs()...)
	ordered = append(ordered, g.stackCards.IDs()...)
	ordered = append(ordered, g.exile.IDs()...)
	ordered = append(ordered, g.command.IDs()...)

	computed := g.layers.ComputeAll(g)
	for _, id := range ordered {
		obj, ok := g.objects[id]
		if !ok {
			continue
		}
		view := ObjectSnapshot{
			ID:            obj.ID,
			Name:          obj.Name(),
			OwnerID:       obj.OwnerID,
			ControllerID:  obj.ControllerID,
			Zone:          obj.Zone.String(),
			Power:         obj.Def.Power,
			Toughness:     obj.Def.Toughness,
			Damage:        obj.Damage,
			Tapped:        obj.Tapped,
			SummoningSick: obj.SummoningSick,
			Token:         obj.Token,
			AttachedTo:    obj.AttachedTo,
		}
		if s, ok := computed[id]; ok && obj.Zone == rules.ZoneBattlefield {
			view.Name = s.Name
			view.ControllerID = s.ControllerID
			view.Power = s.Power
			view.Toughness = s.Toughness
		}
		for _, c := range obj.Counters.ToView() {
			view.Counters = append(view.Counters, CounterSnapshot{Name: c.Name, Count: c.Count})
		}
		snap.Objects = append(snap.Objects, view)
	}

	for _, item := range g.stack.List() {
		snap.Stack = append(snap.Stack, StackSnapshot{
			ID:         item.ID,
			Kind:       string(item.Kind),
			Name:       item.Name,
			SourceID:   item.SourceID,
			Controller: item.Controller,
			Targets:    item.AllTargets(),
		})
	}
	for _, e := range g.layers.Entries() {
		snap.Effects = append(snap.Effects, e.ID)
	}
	return snap
}

// canonical writes the snapshot in a fixed text form. Everything but
// TakenAt is included, in snapshot order.
func (s *Snapshot) canonical() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "GAME:%d|%s|%d|%s|%s|%s|%s|%s|%t|%s\n",
		s.Version, s.GameID, s.Turn, s.Phase, s.Step,
		s.ActivePlayer, s.PriorityHolder, s.PriorityState, s.Over, s.Winner)
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%d|%t|%t|%s\n", p.ID, p.Name, p.Life, p.Poison, p.Lost, p.Left, p.Mana)
		fmt.Fprintf(&buf, "  LIBRARY:%s\n", strings.Join(p.Library, ","))
		fmt.Fprintf(&buf, "  HAND:%s\n", strings.Join(p.Hand, ","))
		fmt.Fprintf(&buf, "  GRAVEYARD:%s\n", strings.Join(p.Graveyard, ","))
	}
	fmt.Fprintf(&buf, "BATTLEFIELD:%s\n", strings.Join(s.Battlefield, ","))
	fmt.Fprintf(&buf, "EXILE:%s\n", strings.Join(s.Exile, ","))
	fmt.Fprintf(&buf, "COMMAND:%s\n", strings.Join(s.Command, ","))
	for _, o := range s.Objects {
		fmt.Fprintf(&buf, "OBJECT:%s|%s|%s|%s|%s|%d|%d|%d|%t|%t|%t|%s\n",
			o.ID, o.Name, o.OwnerID, o.ControllerID, o.Zone,
			o.Power, o.Toughness, o.Damage, o.Tapped, o.SummoningSick, o.Token, o.AttachedTo)
		for _, c := range o.Counters {
			fmt.Fprintf(&buf, "  COUNTER:%s=%d\n", c.Name, c.Count)
		}
	}
	// Stack order matters.
	buf.WriteString("STACK:\n")
	for i, item := range s.Stack {
		fmt.Fprintf(&buf, "  %d:%s|%s|%s|%s|%s|%s\n",
			i, item.ID, item.Kind, item.Name, item.SourceID, item.Controller, strings.Join(item.Targets, ","))
	}
	fmt.Fprintf(&buf, "EFFECTS:%s\n", strings.Join(s.Effects, ","))
	return buf.String()
}

// Checksum returns the hex encoded BLAKE2b-256 hash of the canonical form.
func (s *Snapshot) Checksum() string {
	sum := blake2b.Sum256([]byte(s.canonical()))
	return hex.EncodeToString(sum[:])
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}
