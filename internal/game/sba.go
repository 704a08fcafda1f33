package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/magefree/mage-rules-go/internal/game/cards"
	"github.com/magefree/mage-rules-go/internal/game/counters"
	"github.com/magefree/mage-rules-go/internal/game/rules"
	"go.uber.org/zap"
)

// Reasons recorded on STATE_BASED_ACTIONS and PLAYER_LOST events.
const (
	ReasonZeroLife        = "life"
	ReasonPoison          = "poison"
	ReasonEmptyLibrary    = "empty_library"
	ReasonZeroToughness   = "toughness"
	ReasonLethalDamage    = "lethal_damage"
	ReasonDeathtouch      = "deathtouch"
	ReasonZeroLoyalty     = "loyalty"
	ReasonIllegalAura     = "aura"
	ReasonCounterPairs    = "counters"
	ReasonTokenOutOfPlay  = "token"
	ReasonIllegalAttached = "attachment"
	ReasonConceded        = "conceded"
)

const poisonLimit = 10

// sbaPass collects what one check found. Everything in it is then performed
// at the same time.
type sbaPass struct {
	losers    map[string]string
	loseOrder []string
	tokens    []string
	toGrave   []string
	destroy   []string
	unattach  []string
	annihil   []string
	reasons   []string
}

func (p *sbaPass) lose(playerID, reason string) {
	if _, ok := p.losers[playerID]; ok {
		return
	}
	p.losers[playerID] = reason
	p.loseOrder = append(p.loseOrder, playerID)
	p.note(reason)
}

func (p *sbaPass) note(reason string) {
	if !slices.Contains(p.reasons, reason) {
		p.reasons = append(p.reasons, reason)
	}
}

func (p *sbaPass) empty() bool {
	return len(p.loseOrder) == 0 && len(p.tokens) == 0 && len(p.toGrave) == 0 &&
		len(p.destroy) == 0 && len(p.unattach) == 0 && len(p.annihil) == 0
}

// CheckStateBasedActions performs one pass of state-based actions. Every
// condition is checked against the same game state and all resulting actions
// happen simultaneously. It reports whether anything was performed.
func (g *Game) CheckStateBasedActions() bool {
	if g.over {
		return false
	}
	pass := g.findStateBasedActions()
	if pass.empty() {
		return false
	}

	g.beginBatch()
	for _, pid := range pass.loseOrder {
		g.loseGame(pid, pass.losers[pid])
	}
	for _, id := range pass.tokens {
		g.ceaseToExist(id)
	}
	for _, id := range pass.unattach {
		g.Unattach(id)
	}
	for _, id := range pass.annihil {
		if obj, ok := g.objects[id]; ok {
			if n := obj.Counters.Annihilate(); n > 0 {
				g.publish(rules.NewEventWithAmount(rules.EventCounterRemoved, id, "", obj.ControllerID, 2*n))
			}
		}
	}
	for _, id := range pass.toGrave {
		if _, err := g.moveObject(id, rules.ZoneGraveyard, "", ""); err != nil {
			g.logger.Debug("state-based move skipped", zap.String("object_id", id), zap.Error(err))
		}
	}
	for _, id := range pass.destroy {
		if _, err := g.Destroy(id, ""); err != nil {
			g.logger.Debug("state-based destroy skipped", zap.String("object_id", id), zap.Error(err))
		}
	}
	g.endBatch()

	evt := rules.NewEvent(rules.EventStateBasedActions, "", "", "")
	evt.Data = strings.Join(pass.reasons, ",")
	g.publish(evt)
	g.logger.Debug("state-based actions performed", zap.Strings("reasons", pass.reasons))

	g.checkGameOver()
	return true
}

func (g *Game) findStateBasedActions() *sbaPass {
	pass := &sbaPass{losers: make(map[string]string)}

	for _, pid := range g.order {
		p := g.players[pid]
		if !p.InGame() {
			continue
		}
		switch {
		case p.Life <= 0:
			pass.lose(pid, ReasonZeroLife)
		case p.Poison >= poisonLimit:
			pass.lose(pid, ReasonPoison)
		case p.drewFromEmptyLibrary:
			pass.lose(pid, ReasonEmptyLibrary)
		}
	}

	for _, id := range g.tokensOutsideBattlefield() {
		pass.tokens = append(pass.tokens, id)
		pass.note(ReasonTokenOutOfPlay)
	}

	all := g.layers.ComputeAll(g)
	for _, id := range g.battlefield.IDs() {
		obj := g.objects[id]
		s, ok := all[id]
		if !ok {
			continue
		}
		switch {
		case s.IsCreature() && s.Toughness <= 0:
			pass.toGrave = append(pass.toGrave, id)
			pass.note(ReasonZeroToughness)
			continue
		case s.IsCreature() && obj.Damage > 0 && obj.Damage >= s.Toughness:
			if !s.HasAbility(KeywordIndestructible) {
				pass.destroy = append(pass.destroy, id)
				pass.note(ReasonLethalDamage)
				continue
			}
		case s.IsCreature() && obj.Damage > 0 && obj.DeathtouchDamage:
			if !s.HasAbility(KeywordIndestructible) {
				pass.destroy = append(pass.destroy, id)
				pass.note(ReasonDeathtouch)
				continue
			}
		case s.HasType("Planeswalker") && obj.Counters.Get(counters.CounterTypeLoyalty) <= 0:
			pass.toGrave = append(pass.toGrave, id)
			pass.note(ReasonZeroLoyalty)
			continue
		}

		if s.HasSubtype("Aura") {
			if !g.auraAttachmentLegal(obj) {
				pass.toGrave = append(pass.toGrave, id)
				pass.note(ReasonIllegalAura)
				continue
			}
		} else if obj.AttachedTo != "" && !g.battlefield.Contains(obj.AttachedTo) {
			if _, isPlayer := g.players[obj.AttachedTo]; !isPlayer {
				pass.unattach = append(pass.unattach, id)
				pass.note(ReasonIllegalAttached)
			}
		}

		if obj.Counters.Get(counters.CounterTypeP1P1) > 0 && obj.Counters.Get(counters.CounterTypeM1M1) > 0 {
			pass.annihil = append(pass.annihil, id)
			pass.note(ReasonCounterPairs)
		}
	}
	return pass
}

// auraAttachmentLegal reports whether an Aura is attached to something it
// can enchant.
func (g *Game) auraAttachmentLegal(aura *Object) bool {
	target := aura.AttachedTo
	if target == "" || target == aura.ID {
		return false
	}
	if p, ok := g.players[target]; ok {
		return p.InGame() && aura.Def.Enchant == nil
	}
	s, ok := g.Permanent(target)
	if !ok {
		return false
	}
	return aura.Def.Enchant == nil || aura.Def.Enchant(s)
}

// tokensOutsideBattlefield lists tokens that moved to another zone, in a
// stable order.
func (g *Game) tokensOutsideBattlefield() []string {
	var out []string
	check := func(ids []string) {
		for _, id := range ids {
			if obj, ok := g.objects[id]; ok && obj.Token {
				out = append(out, id)
			}
		}
	}
	for _, pid := range g.order {
		p := g.players[pid]
		check(p.Hand.IDs())
		check(p.Graveyard.IDs())
		check(p.Library.IDs())
	}
	check(g.exile.IDs())
	check(g.command.IDs())
	return out
}

func (g *Game) ceaseToExist(id string) {
	obj, ok := g.objects[id]
	if !ok {
		return
	}
	if set := g.zoneSet(obj.OwnerID, obj.Zone); set != nil {
		set.Remove(id)
	}
	delete(g.objects, id)
	g.publish(rules.NewEvent(rules.EventTokenCeasedToExist, id, "", obj.OwnerID))
}

// loseGame takes playerID out of the game. In a multiplayer game everything
// the player owns leaves with them and their spells and abilities are
// removed from the stack.
func (g *Game) loseGame(playerID, reason string) {
	p := g.players[playerID]
	if !p.InGame() {
		return
	}
	p.Lost = true
	evt := rules.NewEvent(rules.EventPlayerLost, playerID, "", playerID)
	evt.Data = reason
	g.publish(evt)
	g.logger.Info("player lost", zap.String("player_id", playerID), zap.String("reason", reason))

	if len(g.PlayersInRange(playerID)) < 2 {
		return
	}
	g.removePlayerObjects(playerID)
	g.priority.SetPlayers(g.PlayersInRange(g.turn.ActivePlayer()))
}

func (g *Game) removePlayerObjects(playerID string) {
	ownedOrControlled := func(s *StackObject) bool {
		if s.Controller == playerID {
			return true
		}
		obj, ok := g.objects[s.ID]
		return ok && obj.OwnerID == playerID
	}
	for _, item := range g.stack.RemoveWhere(ownedOrControlled) {
		g.logger.Debug("stack object left with its controller", zap.String("stack_id", item.ID))
		if obj, ok := g.objects[item.ID]; ok && obj.OwnerID == playerID {
			g.stackCards.Remove(item.ID)
			delete(g.objects, item.ID)
		}
	}
	for _, id := range g.battlefield.IDs() {
		obj := g.objects[id]
		switch {
		case obj.OwnerID == playerID:
			if s, err := g.Characteristics(id); err == nil {
				g.lki[id] = lastKnown{object: obj.copyObject(), characteristics: s}
			}
			g.battlefield.Remove(id)
			delete(g.objects, id)
		case obj.ControllerID == playerID:
			obj.ControllerID = obj.OwnerID
		}
	}

	p := g.players[playerID]
	for _, zone := range []*cards.Set{p.Hand, p.Library, p.Graveyard} {
		for _, id := range zone.IDs() {
			delete(g.objects, id)
		}
		zone.Clear()
	}
	for _, zone := range []*cards.Set{g.exile, g.command} {
		for _, id := range zone.IDs() {
			if obj, ok := g.objects[id]; ok && obj.OwnerID == playerID {
				zone.Remove(id)
				delete(g.objects, id)
			}
		}
	}
	g.removeExpiredEffects()
}

// checkGameOver ends the game once at most one player is left.
func (g *Game) checkGameOver() {
	if g.over {
		return
	}
	var remaining []string
	for _, pid := range g.order {
		if g.players[pid].InGame() {
			remaining = append(remaining, pid)
		}
	}
	if len(remaining) > 1 {
		return
	}
	g.over = true
	if len(remaining) == 1 {
		g.winner = remaining[0]
	}
	evt := rules.NewEvent(rules.EventGameOver, g.winner, "", g.winner)
	evt.Data = "finished"
	g.publish(evt)
	g.logger.Info("game over", zap.String("winner", g.winner), zap.Int("turn", g.turn.TurnNumber()))
}

// RunStateBasedActions repeats state-based action checks until a check
// performs nothing. Running out of passes is fatal and aborts the game. It
// reports whether any action was performed.
func (g *Game) RunStateBasedActions() (bool, error) {
	performed := g.applyConcessions()
	for range g.cfg.MaxStateBasedPasses {
		if !g.CheckStateBasedActions() {
			return performed, nil
		}
		performed = true
	}
	if g.over {
		return performed, nil
	}
	if g.findStateBasedActions().empty() {
		return performed, nil
	}
	err := fmt.Errorf("%w after %d passes", ErrNotConverged, g.cfg.MaxStateBasedPasses)
	g.abort(err)
	return performed, err
}

// Concede records that playerID concedes. It may be called from any
// goroutine; the game loop applies it before its next state-based action
// check.
func (g *Game) Concede(playerID string) error {
	if _, ok := g.players[playerID]; !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrMissingReference)
	}
	g.concedeMu.Lock()
	defer g.concedeMu.Unlock()
	if !slices.Contains(g.conceding, playerID) {
		g.conceding = append(g.conceding, playerID)
	}
	return nil
}

func (g *Game) applyConcessions() bool {
	g.concedeMu.Lock()
	pending := g.conceding
	g.conceding = nil
	g.concedeMu.Unlock()

	applied := false
	for _, pid := range pending {
		if g.over || !g.players[pid].InGame() {
			continue
		}
		g.loseGame(pid, ReasonConceded)
		applied = true
	}
	if applied {
		g.checkGameOver()
	}
	return applied
}
