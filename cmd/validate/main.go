package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/roleplay-engine/internal/storage"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <setup.json|setup.yaml|save.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		v := &Validator{}
		if err := v.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range v.warnings {
			fmt.Println(w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// Validator checks story setups and save documents before they are
// dropped into the data directory or imported.
type Validator struct {
	errors   []string
	warnings []string
}

func (v *Validator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("file must have a .json, .yaml or .yml extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	doc, err := storage.ToJSON(data, ext)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}
	if !json.Valid(doc) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	v.errors = nil
	v.warnings = nil
	if isSaveDocument(doc) {
		v.validateSave(doc)
	} else {
		id := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		v.validateSetupDocument(doc, id)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// isSaveDocument reports whether doc is an exported game rather than a preset.
func isSaveDocument(doc []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(doc, &keys); err != nil {
		return false
	}
	_, hasLog := keys["story_log"]
	return hasLog
}

func (v *Validator) validateSetupDocument(doc []byte, id string) {
	var s state.StorySetup
	decoder := json.NewDecoder(bytes.NewReader(doc))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		v.addError(fmt.Sprintf("strict decoding failed: %v", err))
		return
	}
	if s.ID == "" {
		s.ID = id
	}
	v.validateSetup(&s)
}

func (v *Validator) validateSetup(s *state.StorySetup) {
	if err := s.Validate(); err != nil {
		v.addError(err.Error())
	}
	v.validateIDFormat("setup id", s.ID)

	seen := make(map[string]bool)
	for _, e := range s.Entities {
		if e.Name == "" {
			v.addError("entity with empty name")
		}
		if !e.Type.Valid() {
			v.addError(fmt.Sprintf("entity '%s' has unknown type '%s'", e.Name, e.Type))
		}
		if e.ID != "" {
			if seen[e.ID] {
				v.addError(fmt.Sprintf("duplicate entity id '%s'", e.ID))
			}
			seen[e.ID] = true
		}
	}

	items := make(map[string]bool)
	for _, item := range s.InitialInventory {
		v.validateItem(item)
		if item.ID != "" {
			if items[item.ID] {
				v.addError(fmt.Sprintf("duplicate item id '%s'", item.ID))
			}
			items[item.ID] = true
		}
	}

	for id, attr := range s.InitialCharacterStats {
		if attr.ID != "" && attr.ID != id {
			v.addError(fmt.Sprintf("stat key '%s' does not match its id '%s'", id, attr.ID))
		}
	}

	for _, sk := range s.StartingSkills() {
		if sk.Name == "" {
			v.addError("skill with empty name")
		}
		if sk.Proficiency != "" && !sk.Proficiency.Valid() {
			v.addError(fmt.Sprintf("skill '%s' has unknown proficiency '%s'", sk.Name, sk.Proficiency))
		}
	}
}

func (v *Validator) validateItem(item state.InventoryItem) {
	if item.Name == "" {
		v.addError("item with empty name")
		return
	}
	if item.Quantity < 0 {
		v.addError(fmt.Sprintf("item '%s' has negative quantity", item.Name))
	}
	if item.Equippable && !item.Slot.Valid() {
		v.addError(fmt.Sprintf("equippable item '%s' has invalid slot '%s'", item.Name, item.Slot))
	}
	if item.Usable && len(item.Effects) == 0 {
		v.addWarning(fmt.Sprintf("usable item '%s' has no effects", item.Name))
	}
	for _, eff := range item.Effects {
		if eff.StatID == "" {
			v.addError(fmt.Sprintf("item '%s' has an effect without a stat id", item.Name))
		}
	}
	for _, b := range item.StatBonuses {
		if b.StatID == "" {
			v.addError(fmt.Sprintf("item '%s' has a bonus without a stat id", item.Name))
		}
	}
}

func (v *Validator) validateSave(doc []byte) {
	gs, err := state.LoadGameState(doc)
	if err != nil {
		v.addError(err.Error())
		return
	}
	if gs.Setup != nil {
		v.validateSetup(gs.Setup)
	}
	// Repair a raw copy to report what loading changed.
	var raw state.GameState
	if err := json.Unmarshal(doc, &raw); err == nil {
		for _, fix := range raw.Repair(false) {
			v.addWarning("repaired on load: " + fix)
		}
	}
	if gs.IsDead() {
		v.addWarning("character is dead; only undo will be accepted")
	}
}

func (v *Validator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase kebab-case or snake_case", fieldName, id))
	}
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *Validator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  ! "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
