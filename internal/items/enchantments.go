package items

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Enchantment is one registered enchantment with its level range.
type Enchantment struct {
	ID       int
	Name     string
	MinLevel int
	MaxLevel int
}

// BookVariant is one enchanted book carrying a single stored enchantment.
type BookVariant struct {
	Enchantment Enchantment
	Level       int
}

var enchantments = []Enchantment{
	{ID: 0, Name: "protection", MinLevel: 1, MaxLevel: 4},
	{ID: 1, Name: "fire_protection", MinLevel: 1, MaxLevel: 4},
	{ID: 2, Name: "feather_falling", MinLevel: 1, MaxLevel: 4},
	{ID: 3, Name: "blast_protection", MinLevel: 1, MaxLevel: 4},
	{ID: 4, Name: "projectile_protection", MinLevel: 1, MaxLevel: 4},
	{ID: 5, Name: "respiration", MinLevel: 1, MaxLevel: 3},
	{ID: 6, Name: "aqua_affinity", MinLevel: 1, MaxLevel: 1},
	{ID: 7, Name: "thorns", MinLevel: 1, MaxLevel: 3},
	{ID: 16, Name: "sharpness", MinLevel: 1, MaxLevel: 5},
	{ID: 17, Name: "smite", MinLevel: 1, MaxLevel: 5},
	{ID: 18, Name: "bane_of_arthropods", MinLevel: 1, MaxLevel: 5},
	{ID: 19, Name: "knockback", MinLevel: 1, MaxLevel: 2},
	{ID: 20, Name: "fire_aspect", MinLevel: 1, MaxLevel: 2},
	{ID: 21, Name: "looting", MinLevel: 1, MaxLevel: 3},
	{ID: 32, Name: "efficiency", MinLevel: 1, MaxLevel: 5},
	{ID: 33, Name: "silk_touch", MinLevel: 1, MaxLevel: 1},
	{ID: 34, Name: "unbreaking", MinLevel: 1, MaxLevel: 3},
	{ID: 35, Name: "fortune", MinLevel: 1, MaxLevel: 3},
	{ID: 48, Name: "power", MinLevel: 1, MaxLevel: 5},
	{ID: 49, Name: "punch", MinLevel: 1, MaxLevel: 2},
	{ID: 50, Name: "flame", MinLevel: 1, MaxLevel: 1},
	{ID: 51, Name: "infinity", MinLevel: 1, MaxLevel: 1},
	{ID: 61, Name: "luck_of_the_sea", MinLevel: 1, MaxLevel: 3},
	{ID: 62, Name: "lure", MinLevel: 1, MaxLevel: 3},
}

// Enchantments returns the registered enchantments ordered by id.
func Enchantments() []Enchantment {
	return append([]Enchantment(nil), enchantments...)
}

// EnchantedBookVariants enumerates every obtainable enchanted book: one per
// enchantment per level, ordered by enchantment id then level.
func EnchantedBookVariants() []BookVariant {
	var books []BookVariant
	for _, enchantment := range enchantments {
		for level := enchantment.MinLevel; level <= enchantment.MaxLevel; level++ {
			books = append(books, BookVariant{Enchantment: enchantment, Level: level})
		}
	}
	return books
}

// NBT renders the stored-enchantment tag for the book.
func (b BookVariant) NBT() string {
	return fmt.Sprintf("{StoredEnchantments:[{id:%ds,lvl:%ds}]}", b.Enchantment.ID, b.Level)
}

// BookVariantByNBT finds the book whose stored-enchantment tag is nbt.
func BookVariantByNBT(nbt string) (BookVariant, bool) {
	if nbt == "" {
		return BookVariant{}, false
	}
	for _, book := range EnchantedBookVariants() {
		if book.NBT() == nbt {
			return book, true
		}
	}
	return BookVariant{}, false
}

// DisplayName renders a human readable name such as "Fire Protection IV".
func (b BookVariant) DisplayName() string {
	return DisplayName(b.Enchantment.Name) + " " + roman(b.Level)
}

// DisplayName title-cases a snake_case registry name.
func DisplayName(registryName string) string {
	words := strings.ReplaceAll(strings.TrimSpace(registryName), "_", " ")
	return cases.Title(language.English).String(words)
}

func roman(level int) string {
	numerals := []struct {
		value  int
		symbol string
	}{
		{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
	}
	if level <= 0 {
		return fmt.Sprint(level)
	}
	var b strings.Builder
	for _, n := range numerals {
		for level >= n.value {
			b.WriteString(n.symbol)
			level -= n.value
		}
	}
	return b.String()
}
