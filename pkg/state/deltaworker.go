package state

import (
	"log/slog"
	"math"
	"strings"
	"time"
)

// DeltaWorker applies a sanitized Segment to a game state. It mutates the
// state it is given; callers that need atomicity hand it a DeepCopy and
// commit only on success.
type DeltaWorker struct {
	gs          *GameState
	seg         *Segment
	logger      *slog.Logger
	now         func() time.Time
	ids         IDGenerator
	progression SkillProgression
	bands       StatusBands
	notices     []Notice
}

// NewDeltaWorker creates a worker with wall-clock time, StableID ids,
// the default skill progression and the default relationship bands.
func NewDeltaWorker(gs *GameState, seg *Segment, logger *slog.Logger) *DeltaWorker {
	return &DeltaWorker{
		gs:          gs,
		seg:         seg,
		logger:      logger,
		now:         time.Now,
		ids:         StableID,
		progression: DefaultSkillProgression,
		bands:       DefaultStatusBands,
	}
}

// WithClock sets the time source for message and achievement timestamps.
func (dw *DeltaWorker) WithClock(now func() time.Time) *DeltaWorker {
	if now != nil {
		dw.now = now
	}
	return dw
}

// WithIDs sets the id generator for new entities.
func (dw *DeltaWorker) WithIDs(ids IDGenerator) *DeltaWorker {
	if ids != nil {
		dw.ids = ids
	}
	return dw
}

// WithProgression sets the skill threshold policy.
func (dw *DeltaWorker) WithProgression(p SkillProgression) *DeltaWorker {
	if p != nil {
		dw.progression = p
	}
	return dw
}

// WithStatusBands sets the relationship score table.
func (dw *DeltaWorker) WithStatusBands(b StatusBands) *DeltaWorker {
	if len(b) > 0 {
		dw.bands = b
	}
	return dw
}

func (dw *DeltaWorker) warn(msg string, args ...any) {
	if dw.logger != nil {
		dw.logger.Warn(msg, append([]any{"game_state_id", dw.gs.ID.String()}, args...)...)
	}
}

func (dw *DeltaWorker) notify(n Notice) {
	dw.notices = append(dw.notices, n)
}

// Apply applies every part of the segment in a fixed order and returns the
// notices produced. Absent parts are skipped.
func (dw *DeltaWorker) Apply() []Notice {
	dw.notices = nil
	if dw.seg == nil {
		return nil
	}
	seg := dw.seg
	now := dw.now()

	dw.gs.AppendMessage(MessageNarration, seg.Story, now)
	dw.applyChoices(seg.Choices)

	dw.mergeEntries(seg.NewEntries, true)
	for _, sc := range seg.StatChanges {
		dw.applyStatChange(sc)
	}
	for _, item := range seg.Gained {
		dw.gainItem(item)
	}
	for _, lost := range seg.Lost {
		dw.loseItem(lost)
	}
	for _, sk := range seg.NewSkills {
		dw.learnSkill(sk)
	}
	for _, sc := range seg.SkillChanges {
		dw.applySkillChange(sc)
	}
	for _, a := range seg.Achievements {
		dw.unlockAchievement(a, now)
	}
	for _, rc := range seg.RelationshipChanges {
		dw.applyRelationshipChange(rc)
	}
	for _, obj := range seg.NewObjectives {
		dw.suggestObjective(obj)
	}
	for _, u := range seg.ObjectiveUpdates {
		dw.updateObjective(u)
	}
	if seg.SummaryUpdate != nil {
		if s := strings.TrimSpace(*seg.SummaryUpdate); s != "" {
			dw.gs.CurrentSummary = s
		}
	}

	dw.gs.UpdatedAt = now
	return dw.notices
}

func (dw *DeltaWorker) applyChoices(choices []PlayerChoice) {
	if dw.gs.IsRoleplayModeActive || choices == nil {
		dw.gs.CurrentChoices = make([]PlayerChoice, 0)
		return
	}
	dw.gs.CurrentChoices = append(make([]PlayerChoice, 0, len(choices)), choices...)
}

// mergeEntries matches entries by (name, type). Existing entries keep their
// id and take the new description when it differs.
func (dw *DeltaWorker) mergeEntries(entries []Entity, announce bool) {
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if idx := findEntity(dw.gs.Encyclopedia, e.Name, e.Type); idx >= 0 {
			cur := &dw.gs.Encyclopedia[idx]
			if e.Description != "" && cur.Description != e.Description {
				cur.Description = e.Description
				if announce {
					dw.notify(noticef(NoticeInfo, "Bách khoa cập nhật: %s", e.Name))
				}
			}
			continue
		}
		if e.ID == "" || dw.entityIDTaken(e.ID) {
			e.ID = dw.ids(e.Name, "entity")
		}
		dw.gs.Encyclopedia = append(dw.gs.Encyclopedia, e)
		if announce {
			dw.notify(noticef(NoticeInfo, "Khám phá mới: %s (%s)", e.Name, e.Type))
		}
	}
}

func (dw *DeltaWorker) entityIDTaken(id string) bool {
	for _, e := range dw.gs.Encyclopedia {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (dw *DeltaWorker) applyStatChange(sc StatChange) {
	attr, ok := dw.gs.CharacterStats[sc.AttributeID]
	if !ok {
		dw.warn("Unknown attribute in stat change", "attribute_id", sc.AttributeID)
		return
	}
	old := attr.Value.String()

	switch {
	case sc.NewValue != nil:
		attr.Value = *sc.NewValue
	case sc.ChangeValue != nil:
		v, numeric := attr.Value.Float()
		if !numeric {
			dw.warn("Cannot add to non-numeric attribute", "attribute_id", sc.AttributeID)
		} else {
			attr.Value = Num(v + *sc.ChangeValue)
		}
	}
	if sc.NewMaxValue != nil && attr.MaxValue != nil {
		m := *sc.NewMaxValue
		attr.MaxValue = &m
	}
	dw.gs.CharacterStats[sc.AttributeID] = attr
	attr = dw.clampToMax(sc.AttributeID, attr)
	dw.gs.CharacterStats[sc.AttributeID] = attr

	if cur := attr.Value.String(); cur != old {
		dw.notify(noticef(NoticeInfo, "%s: %s -> %s", attr.Name, old, cur))
	}
}

// clampToMax keeps a numeric base value with a max inside [0, max]. The max
// includes equipment bonuses so that gear raising the cap can be filled.
func (dw *DeltaWorker) clampToMax(id string, attr CharacterAttribute) CharacterAttribute {
	v, numeric := attr.Value.Float()
	if !numeric || attr.MaxValue == nil || attr.IsProgressionStat {
		return attr
	}
	limit := *attr.MaxValue
	if eff, ok := dw.gs.EffectiveStats()[id]; ok && eff.MaxValue != nil {
		limit = *eff.MaxValue
	}
	attr.Value = Num(math.Max(0, math.Min(limit, v)))
	return attr
}

// MaxItemQuantity caps a single inventory stack.
const MaxItemQuantity = 1_000_000_000

func stackQuantity(have, gained int) int {
	if have >= MaxItemQuantity || gained >= MaxItemQuantity-have {
		return MaxItemQuantity
	}
	return have + gained
}

// gainItem stacks onto an existing item with the same name, or appends.
func (dw *DeltaWorker) gainItem(item InventoryItem) {
	if item.Name == "" || item.Quantity <= 0 {
		return
	}
	if idx := findItemByName(dw.gs.Inventory, item.Name); idx >= 0 {
		dw.gs.Inventory[idx].Quantity = stackQuantity(dw.gs.Inventory[idx].Quantity, item.Quantity)
	} else {
		if item.ID == "" || findItem(dw.gs.Inventory, item.ID) >= 0 {
			item.ID = dw.ids(item.Name, "item")
		}
		if !item.Slot.Valid() {
			item.Equippable = false
			item.Slot = ""
		}
		dw.gs.Inventory = append(dw.gs.Inventory, item)
	}
	dw.notify(noticef(NoticeSuccess, "Nhận được: %s (x%d)", item.Name, item.Quantity))
}

// loseItem decrements by id, then by name. At zero the item is removed and
// unequipped from every slot that held it.
func (dw *DeltaWorker) loseItem(lost LostItem) {
	if lost.Quantity <= 0 {
		return
	}
	idx := -1
	if lost.ID != "" {
		idx = findItem(dw.gs.Inventory, lost.ID)
	}
	if idx < 0 && lost.Name != "" {
		idx = findItemByName(dw.gs.Inventory, lost.Name)
	}
	if idx < 0 {
		dw.warn("Lost item not in inventory", "item_id", lost.ID, "item_name", lost.Name)
		return
	}

	item := &dw.gs.Inventory[idx]
	item.Quantity -= lost.Quantity
	name := item.Name
	dw.notify(noticef(NoticeWarning, "Mất: %s (x%d)", name, lost.Quantity))
	if item.Quantity > 0 {
		return
	}

	id := item.ID
	dw.gs.Inventory = append(dw.gs.Inventory[:idx], dw.gs.Inventory[idx+1:]...)
	if cleared := dw.gs.EquippedItems.unequipItem(id); len(cleared) > 0 {
		dw.notify(noticef(NoticeInfo, "%s đã bị mất và tự động tháo ra.", name))
	}
}

// learnSkill appends a skill unless one with the same id or name exists.
func (dw *DeltaWorker) learnSkill(sk Skill) {
	if sk.Name == "" {
		return
	}
	for _, cur := range dw.gs.CharacterSkills {
		if cur.Name == sk.Name || (sk.ID != "" && cur.ID == sk.ID) {
			return
		}
	}
	if sk.ID == "" {
		sk.ID = dw.ids(sk.Name, "skill")
	}
	if !sk.Proficiency.Valid() {
		sk.Proficiency = ProficiencyNovice
	}
	if sk.XPToNextLevel <= 0 {
		sk.XPToNextLevel = DefaultSkillThreshold
	}
	if sk.XP < 0 {
		sk.XP = 0
	}
	sk.Advance(dw.progression)
	dw.gs.CharacterSkills = append(dw.gs.CharacterSkills, sk)
	dw.notify(noticef(NoticeSuccess, "Học được kỹ năng mới: %s!", sk.Name))
}

func (dw *DeltaWorker) applySkillChange(sc SkillChange) {
	idx := findSkill(dw.gs.CharacterSkills, sc.SkillID)
	if idx < 0 {
		dw.warn("Unknown skill in skill change", "skill_id", sc.SkillID)
		return
	}
	sk := &dw.gs.CharacterSkills[idx]
	before := sk.Proficiency

	if sc.XPGained != nil {
		sk.XP = max(0, sk.XP+*sc.XPGained)
	}
	if sc.NewProficiency != nil && sc.NewProficiency.Valid() {
		sk.Proficiency = *sc.NewProficiency
		sk.XP = 0
		switch {
		case sc.NewXPToNextLevel != nil && *sc.NewXPToNextLevel > 0:
			sk.XPToNextLevel = *sc.NewXPToNextLevel
		case sk.XPToNextLevel > 0:
			sk.XPToNextLevel *= 2
		default:
			sk.XPToNextLevel = DefaultSkillThreshold
		}
	} else if sc.NewXPToNextLevel != nil && *sc.NewXPToNextLevel > 0 {
		sk.XPToNextLevel = *sc.NewXPToNextLevel
	}
	if sc.NewDescription != "" {
		sk.Description = sc.NewDescription
	}
	sk.Advance(dw.progression)

	if sk.Proficiency != before {
		dw.notify(noticef(NoticeSuccess, "Kỹ năng %s đã thăng cấp thành thạo lên %s!", sk.Name, sk.Proficiency))
	}
}

func (dw *DeltaWorker) unlockAchievement(a Achievement, now time.Time) {
	if a.Name == "" {
		return
	}
	for _, cur := range dw.gs.UnlockedAchievements {
		if cur.Name == a.Name {
			return
		}
	}
	a.ID = dw.ids(a.Name, "ach")
	a.UnlockedAt = now.UTC().Format(time.RFC3339)
	dw.gs.UnlockedAchievements = append(dw.gs.UnlockedAchievements, a)
	dw.notify(noticef(NoticeSuccess, "Thành tựu mới: %s", a.Name))
}

// applyRelationshipChange updates a known profile, creating one at neutral
// when the NPC is already in the encyclopedia.
func (dw *DeltaWorker) applyRelationshipChange(rc RelationshipChange) {
	if dw.gs.NPCRelationships == nil {
		dw.gs.NPCRelationships = make(Relationships)
	}
	p, ok := dw.gs.NPCRelationships.ByName(rc.NPCName)
	if !ok {
		idx := findEntity(dw.gs.Encyclopedia, rc.NPCName, EntityNPC)
		if idx < 0 {
			dw.warn("Relationship change for unknown NPC", "npc_name", rc.NPCName)
			return
		}
		entry := dw.gs.Encyclopedia[idx]
		p = NPCProfile{
			ID:          entry.ID,
			Name:        entry.Name,
			Status:      StatusNeutral,
			Description: entry.Description,
			Known:       true,
		}
		dw.notify(noticef(NoticeInfo, "Gặp gỡ %s.", p.Name))
	}

	oldStatus, oldScore := p.Status, p.Score
	if rc.ScoreChange != nil {
		p.Score = ClampScore(p.Score + *rc.ScoreChange)
	}
	if rc.NewStatus.Valid() {
		p.Status = rc.NewStatus
	} else {
		p.Status = dw.bands.Derive(p.Score)
	}
	if rc.Reason != "" {
		p.Description = rc.Reason
	}
	p.Known = true
	dw.gs.NPCRelationships[p.ID] = p

	if p.Status != oldStatus || p.Score != oldScore {
		dw.notify(noticef(NoticeInfo, "Quan hệ với %s: %s (%d) -> %s (%d).", p.Name, oldStatus, oldScore, p.Status, p.Score))
	}
}

func (dw *DeltaWorker) suggestObjective(obj Objective) {
	if obj.Title == "" {
		return
	}
	for _, cur := range dw.gs.Objectives {
		if cur.Status == ObjectiveActive && cur.Title == obj.Title {
			return
		}
	}
	obj.ID = dw.ids(obj.Title, "obj")
	obj.Status = ObjectiveActive
	dw.gs.Objectives = append(dw.gs.Objectives, obj)
	dw.notify(noticef(NoticeInfo, "Mục tiêu mới được gợi ý: %s", obj.Title))
}

func (dw *DeltaWorker) updateObjective(u ObjectiveUpdate) {
	if u.NewStatus != ObjectiveCompleted && u.NewStatus != ObjectiveFailed {
		return
	}
	idx := findActiveObjective(dw.gs.Objectives, u.IDOrTitle)
	if idx < 0 {
		dw.warn("Objective update for unknown or inactive objective", "objective", u.IDOrTitle)
		return
	}
	obj := &dw.gs.Objectives[idx]
	obj.Status = u.NewStatus
	if u.NewStatus == ObjectiveCompleted {
		dw.notify(noticef(NoticeSuccess, "Hoàn thành mục tiêu: %s", obj.Title))
	} else {
		dw.notify(noticef(NoticeError, "Thất bại mục tiêu: %s", obj.Title))
	}
}

// ApplyInitial replaces the story with an opening segment. Stats, inventory
// and skills come from the oracle when it supplied them, else from the setup,
// else from defaults. The encyclopedia is rebuilt from the setup entities plus
// the new entries. History, summary and world event are cleared.
func (dw *DeltaWorker) ApplyInitial(opening *InitialStory) {
	if opening == nil {
		return
	}
	gs := dw.gs
	now := dw.now()
	var setup StorySetup
	if gs.Setup != nil {
		setup = *gs.Setup
	}

	gs.StoryLog = make([]StoryMessage, 0, 1)
	gs.AppendMessage(MessageNarration, opening.Story, now)
	dw.applyChoices(opening.Choices)
	gs.History = make([]Snapshot, 0)
	gs.CurrentSummary = ""
	gs.CurrentWorldEvent = nil

	gs.Encyclopedia = append(make([]Entity, 0, len(setup.Entities)), setup.Entities...)
	dw.mergeEntries(opening.Entries, false)

	switch {
	case len(opening.Stats) > 0:
		gs.CharacterStats = FillDefaultStats(opening.Stats.Clone())
	case len(setup.InitialCharacterStats) > 0:
		gs.CharacterStats = FillDefaultStats(setup.InitialCharacterStats.Clone())
	default:
		gs.CharacterStats = DefaultStats()
	}

	inv := opening.Inventory
	if len(inv) == 0 {
		inv = setup.InitialInventory
	}
	gs.Inventory = make([]InventoryItem, 0, len(inv))
	for _, item := range cloneItems(inv) {
		if item.Name == "" || item.Quantity <= 0 {
			continue
		}
		if idx := findItemByName(gs.Inventory, item.Name); idx >= 0 {
			gs.Inventory[idx].Quantity = stackQuantity(gs.Inventory[idx].Quantity, item.Quantity)
			continue
		}
		if item.ID == "" || findItem(gs.Inventory, item.ID) >= 0 {
			item.ID = dw.ids(item.Name, "item")
		}
		gs.Inventory = append(gs.Inventory, item)
	}
	gs.EquippedItems = AutoEquip(gs.Inventory)

	skills := opening.Skills
	if len(skills) == 0 {
		skills = setup.StartingSkills()
	}
	gs.CharacterSkills = make([]Skill, 0, len(skills))
	for _, sk := range cloneSkills(skills) {
		dw.learnSkill(sk)
	}

	gs.NPCRelationships = make(Relationships, len(opening.Relationships))
	for _, p := range opening.Relationships {
		if p.ID == "" {
			p.ID = "npc-" + Slug(p.Name)
		}
		p.Score = ClampScore(p.Score)
		if !p.Status.Valid() {
			p.Status = dw.bands.Derive(p.Score)
		}
		gs.NPCRelationships[p.ID] = p
	}

	gs.Objectives = make([]Objective, 0, len(opening.Objectives))
	for _, obj := range cloneObjectives(opening.Objectives) {
		if obj.Title == "" {
			continue
		}
		if obj.ID == "" {
			obj.ID = dw.ids(obj.Title, "obj")
		}
		if obj.Status == "" {
			obj.Status = ObjectiveActive
		}
		gs.Objectives = append(gs.Objectives, obj)
	}

	gs.UnlockedAchievements = make([]Achievement, 0, len(opening.Achievements))
	for _, a := range opening.Achievements {
		dw.unlockAchievement(a, now)
	}
	gs.IsInitialStoryGenerated = true
	gs.UpdatedAt = now
	dw.notices = nil
}
