package server

import (
	"silverrail/internal/lifecycle"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

// recordBindings holds the lifecycle hooks of every record type owning files.
type recordBindings struct {
	characters *lifecycle.Binding[models.Character]
	abilities  *lifecycle.Binding[models.Ability]
	lightcones *lifecycle.Binding[models.Lightcone]
	relics     *lifecycle.Binding[models.Relic]
}

func registerRecordTypes(m *lifecycle.Manager, st store.CatalogueStore) (*recordBindings, error) {
	characters, err := lifecycle.Register(m, characterRecordType(st))
	if err != nil {
		return nil, err
	}
	abilities, err := lifecycle.Register(m, abilityRecordType(st))
	if err != nil {
		return nil, err
	}
	lightcones, err := lifecycle.Register(m, lightconeRecordType(st))
	if err != nil {
		return nil, err
	}
	relics, err := lifecycle.Register(m, relicRecordType(st))
	if err != nil {
		return nil, err
	}
	return &recordBindings{
		characters: characters,
		abilities:  abilities,
		lightcones: lightcones,
		relics:     relics,
	}, nil
}

func characterRecordType(st store.CatalogueStore) lifecycle.Type[models.Character] {
	return lifecycle.Type[models.Character]{
		Name:  "character",
		Table: "characters",
		PK:    func(c *models.Character) int64 { return c.ID },
		Load:  st.GetCharacter,
		Fields: []lifecycle.Field[models.Character]{{
			Name:    "image",
			Key:     func(c *models.Character) string { return c.Image },
			HashOf:  func(c *models.Character) string { return c.ImageHash },
			SetHash: func(c *models.Character, h string) { c.ImageHash = h },
		}},
	}
}

func abilityRecordType(st store.CatalogueStore) lifecycle.Type[models.Ability] {
	return lifecycle.Type[models.Ability]{
		Name:  "ability",
		Table: "abilities",
		PK:    func(a *models.Ability) int64 { return a.ID },
		Load:  st.GetAbility,
		Fields: []lifecycle.Field[models.Ability]{{
			Name:    "icon",
			Key:     func(a *models.Ability) string { return a.Icon },
			HashOf:  func(a *models.Ability) string { return a.IconHash },
			SetHash: func(a *models.Ability, h string) { a.IconHash = h },
		}},
	}
}

func lightconeRecordType(st store.CatalogueStore) lifecycle.Type[models.Lightcone] {
	return lifecycle.Type[models.Lightcone]{
		Name:  "lightcone",
		Table: "lightcones",
		PK:    func(l *models.Lightcone) int64 { return l.ID },
		Load:  st.GetLightcone,
		Fields: []lifecycle.Field[models.Lightcone]{{
			Name:    "image",
			Key:     func(l *models.Lightcone) string { return l.Image },
			HashOf:  func(l *models.Lightcone) string { return l.ImageHash },
			SetHash: func(l *models.Lightcone, h string) { l.ImageHash = h },
		}},
	}
}

// relicRecordType leaves set_icon without a hash column, so relics fall back
// to reference checks only.
func relicRecordType(st store.CatalogueStore) lifecycle.Type[models.Relic] {
	return lifecycle.Type[models.Relic]{
		Name:  "relic",
		Table: "relics",
		PK:    func(r *models.Relic) int64 { return r.ID },
		Load:  st.GetRelic,
		Fields: []lifecycle.Field[models.Relic]{
			{
				Name:    "icon",
				Key:     func(r *models.Relic) string { return r.Icon },
				HashOf:  func(r *models.Relic) string { return r.IconHash },
				SetHash: func(r *models.Relic, h string) { r.IconHash = h },
			},
			{
				Name: "set_icon",
				Key:  func(r *models.Relic) string { return r.SetIcon },
			},
		},
	}
}
