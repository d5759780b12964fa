package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"silverrail/internal/api"
	"silverrail/internal/config"
)

const (
	resourceCharacters = "characters"
	resourceAbilities  = "abilities"
	resourceLightcones = "lightcones"
	resourceRelics     = "relics"
)

// defaultUploadField is the file route used by upload when --field is empty.
var defaultUploadField = map[string]string{
	resourceCharacters: "image",
	resourceAbilities:  "icon",
	resourceLightcones: "image",
	resourceRelics:     "icon",
}

var singularResource = map[string]string{
	resourceCharacters: "character",
	resourceAbilities:  "ability",
	resourceLightcones: "lightcone",
	resourceRelics:     "relic",
}

// normalizeResource accepts singular or plural record type names.
func normalizeResource(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for plural, singular := range singularResource {
		if name == plural || name == singular {
			return plural, nil
		}
	}
	return "", fmt.Errorf("unknown record type %q (expected characters, abilities, lightcones, or relics)", raw)
}

type listFlags struct {
	element   string
	path      string
	rarity    int
	slot      string
	set       string
	character int64
	limit     int
	offset    int
}

func (f listFlags) query() url.Values {
	values := url.Values{}
	setIfNotEmpty(values, "element", f.element)
	setIfNotEmpty(values, "path", f.path)
	setIfPositive(values, "rarity", f.rarity)
	setIfNotEmpty(values, "slot", f.slot)
	setIfNotEmpty(values, "set_name", f.set)
	if f.character > 0 {
		values.Set("character_id", fmt.Sprint(f.character))
	}
	setIfPositive(values, "limit", f.limit)
	setIfPositive(values, "offset", f.offset)
	return values
}

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List characters, abilities, lightcones, or relics",
		Args:  requireExactlyArgs(1, "record type is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := normalizeResource(args[0])
			if err != nil {
				return err
			}
			query := flags.query()

			return withClient(cfg, func(client *api.Client) error {
				ctx := cmd.Context()
				switch resource {
				case resourceCharacters:
					items, err := client.ListCharacters(ctx, query)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(items)
					}
					return writeTable([]string{"ID", "NAME", "ELEMENT", "PATH", "RARITY", "IMAGE"}, characterRows(items))
				case resourceAbilities:
					items, err := client.ListAbilities(ctx, query)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(items)
					}
					return writeTable([]string{"ID", "CHARACTER", "NAME", "TYPE", "TARGETING", "ICON"}, abilityRows(items))
				case resourceLightcones:
					items, err := client.ListLightcones(ctx, query)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(items)
					}
					return writeTable([]string{"ID", "NAME", "PATH", "RARITY", "IMAGE"}, lightconeRows(items))
				default:
					items, err := client.ListRelics(ctx, query)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(items)
					}
					return writeTable([]string{"ID", "NAME", "SET", "SLOT", "ICON", "SET_ICON"}, relicRows(items))
				}
			})
		},
	}

	cmd.Flags().StringVar(&flags.element, "element", "", "filter characters by element")
	cmd.Flags().StringVar(&flags.path, "path", "", "filter characters or lightcones by path")
	cmd.Flags().IntVar(&flags.rarity, "rarity", 0, "filter characters or lightcones by rarity")
	cmd.Flags().StringVar(&flags.slot, "slot", "", "filter relics by slot")
	cmd.Flags().StringVar(&flags.set, "set", "", "filter relics by set name")
	cmd.Flags().Int64Var(&flags.character, "character", 0, "filter abilities by character id")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of records")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "records to skip")
	return cmd
}

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <id>",
		Short: "Show one record",
		Args:  requireResourceAndID,
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := normalizeResource(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				if resource == resourceCharacters {
					character, err := client.GetCharacter(cmd.Context(), id)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(character)
					}
					return writeCharacterDetail(character)
				}

				var record map[string]any
				if err := client.Get(cmd.Context(), resource, id, &record); err != nil {
					return err
				}
				return writeJSON(record)
			})
		},
	}
}

func newDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <type> <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one record and release its files",
		Args:    requireResourceAndID,
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := normalizeResource(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				if err := client.Delete(cmd.Context(), resource, id); err != nil {
					return err
				}
				return writePlain("deleted %s %d\n", singularResource[resource], id)
			})
		},
	}
}

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "upload <type> <id> <file>",
		Short: "Upload an image or icon for one record",
		Args:  requireExactlyArgs(3, "record type, id, and file are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := normalizeResource(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if field == "" {
				field = defaultUploadField[resource]
			}

			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()

			return withClient(cfg, func(client *api.Client) error {
				var record map[string]any
				if err := client.UploadFile(cmd.Context(), resource, id, field, filepath.Base(args[2]), f, &record); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(record)
				}
				return writePlain("uploaded %s for %s %d: %v\n", field, singularResource[resource], id, record[field])
			})
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "file field to set (image, icon, or set_icon)")
	return cmd
}
