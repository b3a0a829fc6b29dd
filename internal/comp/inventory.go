package comp

// ItemKind is the coarse item class used for equip rules and tool dispatch.
type ItemKind uint8

const (
	ItemTool ItemKind = iota
	ItemArmor
	ItemConsumable
	ItemIngredient
)

// ToolKind selects which ability family a wielded tool grants.
type ToolKind uint8

const (
	ToolSword ToolKind = iota
	ToolAxe
	ToolHammer
	ToolBow
	ToolStaff
	ToolDebug
	ToolEmpty
)

// Item is an inventory entry. Stackable items carry Amount > 1.
type Item struct {
	ID     string
	Name   string
	Kind   ItemKind
	Tool   ToolKind
	Amount uint32
}

// EquipSlot is a loadout position.
type EquipSlot uint8

const (
	SlotMainhand EquipSlot = iota
	SlotOffhand
	SlotHead
	SlotChest
	SlotLegs
	SlotFeet
	SlotBack
	slotCount
)

// Inventory is an ordered slot container. Nil slots are empty.
type Inventory struct {
	Slots []*Item
}

func NewInventory(capacity int) Inventory {
	return Inventory{Slots: make([]*Item, capacity)}
}

// Push places the item in the first empty slot, stacking onto an existing
// stack of the same ID first. Returns false when the inventory is full.
func (inv *Inventory) Push(item Item) bool {
	if item.Amount == 0 {
		item.Amount = 1
	}
	for _, s := range inv.Slots {
		if s != nil && s.ID == item.ID && s.Kind != ItemTool {
			s.Amount += item.Amount
			return true
		}
	}
	for i, s := range inv.Slots {
		if s == nil {
			it := item
			inv.Slots[i] = &it
			return true
		}
	}
	return false
}

// Take removes and returns the item at slot i, or nil.
func (inv *Inventory) Take(i int) *Item {
	if i < 0 || i >= len(inv.Slots) {
		return nil
	}
	it := inv.Slots[i]
	inv.Slots[i] = nil
	return it
}

func (inv *Inventory) Get(i int) *Item {
	if i < 0 || i >= len(inv.Slots) {
		return nil
	}
	return inv.Slots[i]
}

// Drain removes and returns every item, leaving the inventory empty.
// Used when dropping loot on death.
func (inv *Inventory) Drain() []Item {
	out := make([]Item, 0, len(inv.Slots))
	for i, s := range inv.Slots {
		if s != nil {
			out = append(out, *s)
			inv.Slots[i] = nil
		}
	}
	return out
}

// Loadout maps equipment slots to equipped items.
type Loadout struct {
	Slots [slotCount]*Item
}

func (l *Loadout) Equip(slot EquipSlot, item *Item) *Item {
	prev := l.Slots[slot]
	l.Slots[slot] = item
	return prev
}

func (l *Loadout) Equipped(slot EquipSlot) *Item {
	return l.Slots[slot]
}

// ActiveTool returns the kind of the mainhand tool, ToolEmpty when bare.
func (l *Loadout) ActiveTool() ToolKind {
	if it := l.Slots[SlotMainhand]; it != nil && it.Kind == ItemTool {
		return it.Tool
	}
	return ToolEmpty
}
