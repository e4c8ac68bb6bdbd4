package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/roleplay-engine/pkg/chat"
)

type CommandType string

const (
	CmdInventory     CommandType = "inventory"
	CmdStats         CommandType = "stats"
	CmdSkills        CommandType = "skills"
	CmdObjectives    CommandType = "objectives"
	CmdRelationships CommandType = "relationships"
	CmdNone          CommandType = "" // No command, the input goes to the oracle
)

var knownCommands = map[string]CommandType{
	"inventory":     CmdInventory,
	"i":             CmdInventory,
	"túi đồ":        CmdInventory,
	"stats":         CmdStats,
	"s":             CmdStats,
	"trạng thái":    CmdStats,
	"skills":        CmdSkills,
	"kỹ năng":       CmdSkills,
	"objectives":    CmdObjectives,
	"mục tiêu":      CmdObjectives,
	"relationships": CmdRelationships,
	"quan hệ":       CmdRelationships,
}

// parseCommand recognizes a shortcut command. Anything else is CmdNone.
func parseCommand(input string) CommandType {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return CmdNone
	}
	return knownCommands[trimmed]
}

// CommandResult is an early evaluation of a player action.
type CommandResult struct {
	Handled bool   // True if the command was resolved locally and no oracle call is needed
	Message string // Message to return, or the action to forward
	Role    string // Role for the message, e.g. "user", "assistant"
}

// TryHandleCommand answers read-only shortcut commands without the oracle.
// It never mutates the state.
func (gs *GameState) TryHandleCommand(input string) *CommandResult {
	var msg string
	switch parseCommand(input) {
	case CmdInventory:
		msg = gs.DescribeInventory()
	case CmdStats:
		msg = gs.DescribeStats()
	case CmdSkills:
		msg = gs.DescribeSkills()
	case CmdObjectives:
		msg = gs.DescribeObjectives()
	case CmdRelationships:
		msg = gs.DescribeRelationships()
	default:
		return &CommandResult{Handled: false, Message: input, Role: chat.ChatRoleUser}
	}
	return &CommandResult{Handled: true, Message: msg, Role: chat.ChatRoleAgent}
}

func (gs *GameState) DescribeInventory() string {
	if len(gs.Inventory) == 0 {
		return "Túi đồ trống rỗng."
	}
	equipped := make(map[string]EquipmentSlot, len(gs.EquippedItems))
	for slot, id := range gs.EquippedItems {
		equipped[id] = slot
	}
	lines := make([]string, 0, len(gs.Inventory))
	for _, item := range gs.Inventory {
		line := fmt.Sprintf("- %s (x%d)", item.Name, item.Quantity)
		if slot, ok := equipped[item.ID]; ok {
			line += fmt.Sprintf(" [%s]", slot)
		}
		lines = append(lines, line)
	}
	return "Túi đồ:\n" + strings.Join(lines, "\n")
}

// DescribeStats lists effective stats, sorted by id.
func (gs *GameState) DescribeStats() string {
	eff := gs.EffectiveStats()
	ids := make([]string, 0, len(eff))
	for id := range eff {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		attr := eff[id]
		line := fmt.Sprintf("- %s: %s", attr.Name, attr.Value)
		if attr.MaxValue != nil {
			line += fmt.Sprintf("/%s", Num(*attr.MaxValue))
		}
		lines = append(lines, line)
	}
	return "Chỉ số:\n" + strings.Join(lines, "\n")
}

func (gs *GameState) DescribeSkills() string {
	if len(gs.CharacterSkills) == 0 {
		return "Chưa học kỹ năng nào."
	}
	lines := make([]string, 0, len(gs.CharacterSkills))
	for _, sk := range gs.CharacterSkills {
		lines = append(lines, fmt.Sprintf("- %s [%s] %d/%d", sk.Name, sk.Proficiency, sk.XP, sk.XPToNextLevel))
	}
	return "Kỹ năng:\n" + strings.Join(lines, "\n")
}

func (gs *GameState) DescribeObjectives() string {
	var lines []string
	for _, obj := range gs.Objectives {
		if obj.Status == ObjectiveActive {
			lines = append(lines, "- "+obj.Title)
		}
	}
	if len(lines) == 0 {
		return "Không có mục tiêu nào đang theo đuổi."
	}
	return "Mục tiêu:\n" + strings.Join(lines, "\n")
}

func (gs *GameState) DescribeRelationships() string {
	var lines []string
	for _, p := range gs.NPCRelationships {
		if p.Known {
			lines = append(lines, fmt.Sprintf("- %s: %s (%d)", p.Name, p.Status, p.Score))
		}
	}
	if len(lines) == 0 {
		return "Chưa quen biết ai."
	}
	sort.Strings(lines)
	return "Quan hệ:\n" + strings.Join(lines, "\n")
}
