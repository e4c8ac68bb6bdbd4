package state

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lão Già", "lao_gia"},
		{"Đạo Sĩ   Áo Xanh", "dao_si_ao_xanh"},
		{"Hồi Xuân Đan (cấp 1)", "hoi_xuan_dan_cap_1"},
		{"", ""},
		{"!!!", ""},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStableID(t *testing.T) {
	a := StableID("Lão Già", "npc")
	b := StableID("Lão Già", "npc")
	if a == b {
		t.Errorf("expected distinct ids, both %q", a)
	}
	if !strings.HasPrefix(a, "npc-lao_gia-") {
		t.Errorf("unexpected id %q", a)
	}
}

func TestSequentialIDs(t *testing.T) {
	gen := SequentialIDs()
	if got := gen("Kiếm", "item"); got != "item-kiem-1" {
		t.Errorf("unexpected first id %q", got)
	}
	if got := gen("", "obj"); got != "obj-2" {
		t.Errorf("unexpected second id %q", got)
	}
}
