package models

import (
	"fmt"
	"strings"
)

// Element is a character's combat element.
type Element string

const (
	ElementFire      Element = "fire"
	ElementIce       Element = "ice"
	ElementWind      Element = "wind"
	ElementLightning Element = "lightning"
	ElementPhysical  Element = "physical"
	ElementQuantum   Element = "quantum"
	ElementImaginary Element = "imaginary"
)

// Path is the class shared by characters and lightcones.
type Path string

const (
	PathDestruction  Path = "destruction"
	PathHunt         Path = "hunt"
	PathErudition    Path = "erudition"
	PathHarmony      Path = "harmony"
	PathNihility     Path = "nihility"
	PathPreservation Path = "preservation"
	PathAbundance    Path = "abundance"
	PathRemembrance  Path = "remembrance"
)

// AbilityType is the kind of ability.
type AbilityType string

const (
	AbilityBasic     AbilityType = "basic"
	AbilitySkill     AbilityType = "skill"
	AbilityTalent    AbilityType = "talent"
	AbilityUltimate  AbilityType = "ultimate"
	AbilityTechnique AbilityType = "technique"
)

// Targeting describes who an ability hits.
type Targeting string

const (
	TargetSelf   Targeting = "self"
	TargetAlly   Targeting = "ally"
	TargetAllies Targeting = "allies"
	TargetSingle Targeting = "single"
	TargetBlast  Targeting = "blast"
	TargetAoE    Targeting = "aoe"

	DefaultTargeting = TargetSingle
)

// RelicSlot is the equipment slot of a relic.
type RelicSlot string

const (
	SlotHead  RelicSlot = "head"
	SlotHands RelicSlot = "hands"
	SlotChest RelicSlot = "chest"
	SlotFeet  RelicSlot = "feet"
)

const (
	MaxNameLength   = 128
	MaxEffectLength = 2048

	TeamMaxMembers      = 4
	TeamMaxMemberRelics = 4
	CharacterRarityMin  = 4
	CharacterRarityMax  = 5
	LightconeRarityMin  = 3
	LightconeRarityMax  = 5
)

var validElements = map[Element]struct{}{
	ElementFire:      {},
	ElementIce:       {},
	ElementWind:      {},
	ElementLightning: {},
	ElementPhysical:  {},
	ElementQuantum:   {},
	ElementImaginary: {},
}

var validPaths = map[Path]struct{}{
	PathDestruction:  {},
	PathHunt:         {},
	PathErudition:    {},
	PathHarmony:      {},
	PathNihility:     {},
	PathPreservation: {},
	PathAbundance:    {},
	PathRemembrance:  {},
}

var validAbilityTypes = map[AbilityType]struct{}{
	AbilityBasic:     {},
	AbilitySkill:     {},
	AbilityTalent:    {},
	AbilityUltimate:  {},
	AbilityTechnique: {},
}

var validTargetings = map[Targeting]struct{}{
	TargetSelf:   {},
	TargetAlly:   {},
	TargetAllies: {},
	TargetSingle: {},
	TargetBlast:  {},
	TargetAoE:    {},
}

var validRelicSlots = map[RelicSlot]struct{}{
	SlotHead:  {},
	SlotHands: {},
	SlotChest: {},
	SlotFeet:  {},
}

func ParseElement(raw string) (Element, error) {
	value := Element(normalizeEnum(raw))
	if value == "" {
		return "", fmt.Errorf("element is required")
	}
	if _, ok := validElements[value]; !ok {
		return "", fmt.Errorf("invalid element: %s", value)
	}
	return value, nil
}

func ParsePath(raw string) (Path, error) {
	value := Path(normalizeEnum(raw))
	// "The Hunt" is the display name.
	if value == "the_hunt" {
		value = PathHunt
	}
	if value == "" {
		return "", fmt.Errorf("path is required")
	}
	if _, ok := validPaths[value]; !ok {
		return "", fmt.Errorf("invalid path: %s", value)
	}
	return value, nil
}

func ParseAbilityType(raw string) (AbilityType, error) {
	value := AbilityType(normalizeEnum(raw))
	if value == "" {
		return "", fmt.Errorf("ability type is required")
	}
	if _, ok := validAbilityTypes[value]; !ok {
		return "", fmt.Errorf("invalid ability type: %s", value)
	}
	return value, nil
}

// ParseTargeting returns DefaultTargeting for an empty value.
func ParseTargeting(raw string) (Targeting, error) {
	value := Targeting(normalizeEnum(raw))
	if value == "" {
		return DefaultTargeting, nil
	}
	if _, ok := validTargetings[value]; !ok {
		return "", fmt.Errorf("invalid targeting: %s", value)
	}
	return value, nil
}

func ParseRelicSlot(raw string) (RelicSlot, error) {
	value := RelicSlot(normalizeEnum(raw))
	if value == "shoes" {
		value = SlotFeet
	}
	if value == "" {
		return "", fmt.Errorf("slot is required")
	}
	if _, ok := validRelicSlots[value]; !ok {
		return "", fmt.Errorf("invalid slot: %s", value)
	}
	return value, nil
}

func IsValidCharacterRarity(value int) bool {
	return value >= CharacterRarityMin && value <= CharacterRarityMax
}

func IsValidLightconeRarity(value int) bool {
	return value >= LightconeRarityMin && value <= LightconeRarityMax
}

// ElementStrings lists valid elements in display order.
func ElementStrings() []string {
	return []string{
		string(ElementFire), string(ElementIce), string(ElementWind), string(ElementLightning),
		string(ElementPhysical), string(ElementQuantum), string(ElementImaginary),
	}
}

func normalizeEnum(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(value, " ", "_")
}
