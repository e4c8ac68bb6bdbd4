package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/jwebster45206/roleplay-engine/pkg/storage"
)

const jsonSetup = `{
  "name": "Thanh Vân Kiếm Khách",
  "world": {"theme": "Tiên hiệp", "context": "Thanh Vân đại lục", "tone": "Sử thi"},
  "character": {"name": "Lâm Phong", "gender": "Nam", "goal": "Báo thù"},
  "entities": [{"id": "e1", "type": "NPC", "name": "Lão Già", "description": "Ẩn sĩ."}]
}`

const yamlSetup = `
name: Đô Thị Dị Năng
world:
  theme: Đô thị
  context: Thành phố Thượng Hải
  tone: Hài hước
character:
  name: Trần Vũ
  gender: Nam
  goal: Trở thành người mạnh nhất
initial_character_stats:
  hp:
    id: hp
    name: Sinh Lực
    value: 80
    max_value: 120
  progression_level:
    id: progression_level
    name: Cấp Độ
    value: Nhất Giai
    is_progression_stat: true
`

func writeSetups(t *testing.T, dir string) {
	t.Helper()
	setups := filepath.Join(dir, "setups")
	if err := os.MkdirAll(setups, 0o755); err != nil {
		t.Fatalf("Failed to create setups dir: %v", err)
	}
	files := map[string]string{
		"thanh_van.json": jsonSetup,
		"do_thi.yaml":    yamlSetup,
		"broken.json":    "{not json",
		"notes.txt":      "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(setups, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestRedisStorage_ListSetups(t *testing.T) {
	dir := t.TempDir()
	writeSetups(t, dir)
	r := NewRedisStorage("127.0.0.1:0", dir, time.Hour, nil, testLogger())
	defer r.Close()

	setups, err := r.ListSetups(context.Background())
	if err != nil {
		t.Fatalf("Failed to list setups: %v", err)
	}
	if len(setups) != 2 {
		t.Fatalf("Expected 2 setups, got %d: %v", len(setups), setups)
	}
	if setups["Thanh Vân Kiếm Khách"] != "thanh_van" {
		t.Errorf("Expected JSON preset to be listed, got %v", setups)
	}
	if setups["Đô Thị Dị Năng"] != "do_thi" {
		t.Errorf("Expected YAML preset to be listed, got %v", setups)
	}
}

func TestRedisStorage_ListSetups_MissingDir(t *testing.T) {
	r := NewRedisStorage("127.0.0.1:0", t.TempDir(), time.Hour, nil, testLogger())
	defer r.Close()

	setups, err := r.ListSetups(context.Background())
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if len(setups) != 0 {
		t.Errorf("Expected no setups, got %v", setups)
	}
}

func TestRedisStorage_GetSetup(t *testing.T) {
	dir := t.TempDir()
	writeSetups(t, dir)
	r := NewRedisStorage("127.0.0.1:0", dir, time.Hour, nil, testLogger())
	defer r.Close()
	ctx := context.Background()

	s, err := r.GetSetup(ctx, "thanh_van")
	if err != nil {
		t.Fatalf("Failed to get JSON setup: %v", err)
	}
	if s.ID != "thanh_van" || s.Character.Name != "Lâm Phong" {
		t.Errorf("Unexpected setup: %+v", s)
	}
	if len(s.Entities) != 1 || s.Entities[0].Type != state.EntityNPC {
		t.Errorf("Unexpected entities: %+v", s.Entities)
	}

	y, err := r.GetSetup(ctx, "do_thi")
	if err != nil {
		t.Fatalf("Failed to get YAML setup: %v", err)
	}
	hp := y.InitialCharacterStats[state.StatHP]
	if v, ok := hp.Value.Float(); !ok || v != 80 {
		t.Errorf("Expected numeric hp 80, got %v", hp.Value)
	}
	if hp.MaxValue == nil || *hp.MaxValue != 120 {
		t.Errorf("Expected max hp 120, got %v", hp.MaxValue)
	}
	if lvl := y.InitialCharacterStats[state.StatProgressionLevel]; lvl.Value.String() != "Nhất Giai" || !lvl.IsProgressionStat {
		t.Errorf("Unexpected progression stat: %+v", lvl)
	}
}

func TestRedisStorage_GetSetup_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeSetups(t, dir)
	r := NewRedisStorage("127.0.0.1:0", dir, time.Hour, nil, testLogger())
	defer r.Close()

	for _, id := range []string{"missing", "../etc/passwd", ""} {
		_, err := r.GetSetup(context.Background(), id)
		if !errors.Is(err, storage.ErrSetupNotFound) {
			t.Errorf("GetSetup(%q): expected ErrSetupNotFound, got %v", id, err)
		}
	}
}

func TestToJSON_PassesJSONThrough(t *testing.T) {
	in := []byte(`{"a":1}`)
	out, err := ToJSON(in, ".json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("Expected JSON unchanged, got %s", out)
	}
}
