package state

// EquipmentSlot is one of the eight fixed equipment positions.
type EquipmentSlot string

const (
	SlotWeapon  EquipmentSlot = "Vũ Khí Chính"
	SlotOffHand EquipmentSlot = "Tay Phụ"
	SlotHelmet  EquipmentSlot = "Mũ"
	SlotArmor   EquipmentSlot = "Giáp"
	SlotBoots   EquipmentSlot = "Giày"
	SlotAmulet  EquipmentSlot = "Dây Chuyền"
	SlotRing1   EquipmentSlot = "Nhẫn 1"
	SlotRing2   EquipmentSlot = "Nhẫn 2"
)

// EquipmentSlots lists every slot in display order.
var EquipmentSlots = []EquipmentSlot{
	SlotWeapon, SlotOffHand, SlotHelmet, SlotArmor,
	SlotBoots, SlotAmulet, SlotRing1, SlotRing2,
}

// Valid reports whether s is one of the fixed slots.
func (s EquipmentSlot) Valid() bool {
	for _, slot := range EquipmentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Item categories used by the oracle.
const (
	CategoryMedicine  = "thuốc"
	CategoryWeapon    = "vũ khí"
	CategoryGear      = "trang bị"
	CategoryMaterial  = "nguyên liệu"
	CategoryOther     = "khác"
	CategoryImportant = "quan trọng"
)

// StatBonus is an equipment bonus. It is aggregated at read time and never
// written into base stats.
type StatBonus struct {
	StatID       string  `json:"stat_id"`
	Value        float64 `json:"value"`
	IsPercentage bool    `json:"is_percentage,omitempty"`
	AppliesToMax bool    `json:"applies_to_max,omitempty"`
}

// ItemEffect is applied to base stats when a usable item is used.
type ItemEffect struct {
	StatID      string  `json:"stat_id"`
	ChangeValue float64 `json:"change_value"`
	Duration    *int    `json:"duration,omitempty"`
}

type InventoryItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Quantity    int           `json:"quantity"`
	Icon        string        `json:"icon,omitempty"`
	Category    string        `json:"category,omitempty"`
	Usable      bool          `json:"usable,omitempty"`
	Consumable  bool          `json:"consumable,omitempty"`
	Effects     []ItemEffect  `json:"effects,omitempty"`
	Equippable  bool          `json:"equippable,omitempty"`
	Slot        EquipmentSlot `json:"slot,omitempty"`
	StatBonuses []StatBonus   `json:"stat_bonuses,omitempty"`
}

// CanEquip reports whether the item may occupy its slot.
func (i InventoryItem) CanEquip() bool {
	return i.Equippable && i.Slot.Valid()
}

// EquippedItems maps slot to the id of the inventory item occupying it.
type EquippedItems map[EquipmentSlot]string

// Clone returns a copy of the slot map.
func (e EquippedItems) Clone() EquippedItems {
	if e == nil {
		return nil
	}
	out := make(EquippedItems, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// unequipItem clears every slot holding itemID and reports the slots cleared.
func (e EquippedItems) unequipItem(itemID string) []EquipmentSlot {
	var cleared []EquipmentSlot
	for slot, id := range e {
		if id == itemID {
			delete(e, slot)
			cleared = append(cleared, slot)
		}
	}
	return cleared
}

// findItem returns the index of the item with the given id, or -1.
func findItem(inv []InventoryItem, id string) int {
	for i := range inv {
		if inv[i].ID == id {
			return i
		}
	}
	return -1
}

// findItemByName returns the index of the first item with the given name, or -1.
func findItemByName(inv []InventoryItem, name string) int {
	for i := range inv {
		if inv[i].Name == name {
			return i
		}
	}
	return -1
}

// AutoEquip places every equippable item into its slot when that slot is empty.
// Used when a new adventure starts with a prepared inventory.
func AutoEquip(inv []InventoryItem) EquippedItems {
	eq := make(EquippedItems)
	for _, item := range inv {
		if !item.CanEquip() {
			continue
		}
		if _, taken := eq[item.Slot]; !taken {
			eq[item.Slot] = item.ID
		}
	}
	return eq
}
