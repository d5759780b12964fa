package server

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"silverrail/internal/models"
)

func normalizeText(field, value string, maxLen int, required bool) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return "", badRequestCode(fmt.Errorf("%s is required", field), ErrCodeMissingRequired)
		}
		return "", nil
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", badRequestCode(fmt.Errorf("%s must be at most %d characters", field, maxLen), ErrCodeInvalidArgument)
	}
	return value, nil
}

func normalizeName(value string) (string, error) {
	return normalizeText("name", value, models.MaxNameLength, true)
}

func normalizeElement(value string) (string, error) {
	element, err := models.ParseElement(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidElement)
	}
	return string(element), nil
}

func normalizePath(value string) (string, error) {
	path, err := models.ParsePath(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidPath)
	}
	return string(path), nil
}

func normalizeSlot(value string) (string, error) {
	slot, err := models.ParseRelicSlot(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidSlot)
	}
	return string(slot), nil
}

func normalizeAbilityType(value string) (string, error) {
	typ, err := models.ParseAbilityType(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidAbility)
	}
	return string(typ), nil
}

func normalizeTargeting(value string) (string, error) {
	targeting, err := models.ParseTargeting(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidAbility)
	}
	return string(targeting), nil
}

func validateCharacterRarity(value int) error {
	if !models.IsValidCharacterRarity(value) {
		return badRequestCode(fmt.Errorf("rarity must be between %d and %d", models.CharacterRarityMin, models.CharacterRarityMax), ErrCodeInvalidRarity)
	}
	return nil
}

func validateLightconeRarity(value int) error {
	if !models.IsValidLightconeRarity(value) {
		return badRequestCode(fmt.Errorf("rarity must be between %d and %d", models.LightconeRarityMin, models.LightconeRarityMax), ErrCodeInvalidRarity)
	}
	return nil
}

// validateCost rejects negative resource values.
func validateCost(field string, value *int) error {
	if value != nil && *value < 0 {
		return badRequestCode(fmt.Errorf("%s must be >= 0", field), ErrCodeInvalidAbility)
	}
	return nil
}
