package models

import (
	"fmt"
	"strings"
)

// StatOwner names the record type a stat row belongs to.
type StatOwner string

const (
	StatOwnerCharacter StatOwner = "character"
	StatOwnerLightcone StatOwner = "lightcone"
)

// StatCategory groups stat types.
type StatCategory string

const (
	StatCategoryBase       StatCategory = "base"
	StatCategoryAdvanced   StatCategory = "advanced"
	StatCategoryDamage     StatCategory = "damage"
	StatCategoryResistance StatCategory = "resistance"
)

// Stat is one numeric attribute of a character or lightcone.
type Stat struct {
	ID        int64   `json:"id"`
	OwnerType string  `json:"owner_type"`
	OwnerID   int64   `json:"owner_id"`
	Category  string  `json:"category"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
}

type statDef struct {
	category StatCategory
	types    []string
}

var statCatalogue = []statDef{
	{StatCategoryBase, []string{"hp", "atk", "def", "spd"}},
	{StatCategoryAdvanced, []string{
		"critrate", "critdmg", "break", "healing",
		"maxenergy", "energyregen", "effecthit", "effectres",
	}},
	{StatCategoryDamage, []string{
		"physicalboost", "fireboost", "iceboost", "windboost",
		"lightningboost", "quantumboost", "imaginaryboost",
	}},
	{StatCategoryResistance, []string{
		"physicalres", "fireres", "iceres", "windres",
		"lightningres", "quantumres", "imaginaryres",
	}},
}

// DefaultStats returns the zero-valued stat rows assigned to a new character.
func DefaultStats() []Stat {
	out := make([]Stat, 0, 27)
	for _, def := range statCatalogue {
		for _, typ := range def.types {
			out = append(out, Stat{
				OwnerType: string(StatOwnerCharacter),
				Category:  string(def.category),
				Type:      typ,
			})
		}
	}
	return out
}

// StatCategoryOf returns the category of a stat type.
func StatCategoryOf(statType string) (StatCategory, bool) {
	statType = strings.ToLower(strings.TrimSpace(statType))
	for _, def := range statCatalogue {
		for _, typ := range def.types {
			if typ == statType {
				return def.category, true
			}
		}
	}
	return "", false
}

func ParseStatOwner(raw string) (StatOwner, error) {
	value := StatOwner(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case StatOwnerCharacter, StatOwnerLightcone:
		return value, nil
	case "":
		return "", fmt.Errorf("owner type is required")
	default:
		return "", fmt.Errorf("invalid owner type: %s", value)
	}
}
