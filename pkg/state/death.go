package state

import (
	"errors"
	"time"
)

// ErrCharacterDead blocks story-advancing operations once HP has run out.
var ErrCharacterDead = errors.New("character is dead")

// DeathMessage is the terminal system message for the protagonist.
func (gs *GameState) DeathMessage() string {
	return gs.CharacterName() + " đã tử vong. Số mệnh đã định, không thể xoay chuyển."
}

// IsDead reports whether effective HP is at or below zero.
func (gs *GameState) IsDead() bool {
	hp, ok := gs.EffectiveStats().Value(StatHP)
	return ok && hp <= 0
}

// CheckDeath clears the choices and appends the death message the first
// time the character is found dead. It reports whether the character is dead.
func (gs *GameState) CheckDeath(at time.Time) bool {
	if !gs.IsDead() {
		return false
	}
	gs.CurrentChoices = make([]PlayerChoice, 0)
	msg := gs.DeathMessage()
	for _, m := range gs.StoryLog {
		if m.Type == MessageSystem && m.Content == msg {
			return true
		}
	}
	gs.AppendMessage(MessageSystem, msg, at)
	return true
}
