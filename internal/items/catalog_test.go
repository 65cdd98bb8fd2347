package items

import "testing"

func TestDefaultCatalogLookups(t *testing.T) {
	catalog := Default()

	def, ok := catalog.Item("stick")
	if !ok {
		t.Fatalf("expected stick to be registered")
	}
	if def.MaxStack != 64 {
		t.Fatalf("expected default max stack 64, got %d", def.MaxStack)
	}
	if _, ok := catalog.Item("unobtainium"); ok {
		t.Fatalf("expected unknown item lookup to fail")
	}

	ores, ok := catalog.Category("oreIron")
	if !ok || len(ores) != 1 || ores[0] != ItemIronOre {
		t.Fatalf("expected oreIron to contain iron_ore, got %v", ores)
	}
	if _, ok := catalog.Category("oreCopper"); ok {
		t.Fatalf("expected unknown category lookup to fail")
	}

	food, ok := catalog.Tag("food")
	if !ok {
		t.Fatalf("expected food tag to exist")
	}
	for i := 1; i < len(food); i++ {
		if food[i-1] >= food[i] {
			t.Fatalf("expected tag members sorted by id, got %v", food)
		}
	}
}

func TestCategoryReturnsCopy(t *testing.T) {
	catalog := Default()
	first, _ := catalog.Tag("tools")
	first[0] = "mutated"
	second, _ := catalog.Tag("tools")
	if second[0] == "mutated" {
		t.Fatalf("expected tag lookups to return a copy")
	}
}

func TestNewDefinitionRequiresID(t *testing.T) {
	if _, err := NewDefinition(DefinitionParams{ID: "  "}); err == nil {
		t.Fatalf("expected blank id to be rejected")
	}
}

func TestEnchantedBookVariantsCoverEveryLevel(t *testing.T) {
	books := EnchantedBookVariants()
	expected := 0
	for _, enchantment := range Enchantments() {
		expected += enchantment.MaxLevel - enchantment.MinLevel + 1
	}
	if len(books) != expected {
		t.Fatalf("expected %d books, got %d", expected, len(books))
	}
	if books[0].NBT() != "{StoredEnchantments:[{id:0s,lvl:1s}]}" {
		t.Fatalf("unexpected nbt %q", books[0].NBT())
	}
}

func TestBookDisplayName(t *testing.T) {
	book := BookVariant{Enchantment: Enchantment{ID: 1, Name: "fire_protection"}, Level: 4}
	if got := book.DisplayName(); got != "Fire Protection IV" {
		t.Fatalf("expected Fire Protection IV, got %q", got)
	}
}

func TestBookVariantByNBT(t *testing.T) {
	book, ok := BookVariantByNBT("{StoredEnchantments:[{id:1s,lvl:4s}]}")
	if !ok || book.DisplayName() != "Fire Protection IV" {
		t.Fatalf("expected Fire Protection IV, got %+v (%v)", book, ok)
	}
	if _, ok := BookVariantByNBT(""); ok {
		t.Fatalf("expected empty nbt to match nothing")
	}
}
