package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"silverrail/internal/api"
	"silverrail/internal/config"
)

// seedFile is the YAML layout accepted by seed. File paths are resolved
// relative to the seed file.
type seedFile struct {
	Lightcones []seedLightcone `yaml:"lightcones"`
	Characters []seedCharacter `yaml:"characters"`
	Relics     []seedRelic     `yaml:"relics"`
}

type seedLightcone struct {
	api.LightconeCreateRequest `yaml:",inline"`
	ImageFile                  string `yaml:"image_file,omitempty"`
}

type seedCharacter struct {
	api.CharacterCreateRequest `yaml:",inline"`
	Lightcone                  string        `yaml:"lightcone,omitempty"`
	ImageFile                  string        `yaml:"image_file,omitempty"`
	Abilities                  []seedAbility `yaml:"abilities,omitempty"`
}

type seedAbility struct {
	api.AbilityCreateRequest `yaml:",inline"`
	IconFile                 string `yaml:"icon_file,omitempty"`
}

type seedRelic struct {
	api.RelicCreateRequest `yaml:",inline"`
	IconFile               string `yaml:"icon_file,omitempty"`
	SetIconFile            string `yaml:"set_icon_file,omitempty"`
}

// seedResult counts created records.
type seedResult struct {
	Lightcones int  `json:"lightcones"`
	Characters int  `json:"characters"`
	Abilities  int  `json:"abilities"`
	Relics     int  `json:"relics"`
	Files      int  `json:"files"`
	DryRun     bool `json:"dry_run,omitempty"`
}

func newSeedCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create catalogue records and upload their files from a YAML file",
		Args:  requireExactlyArgs(1, "seed file is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeedFile(args[0])
			if err != nil {
				return err
			}
			baseDir := filepath.Dir(args[0])
			if err := seed.validate(baseDir); err != nil {
				return err
			}

			if dryRun {
				result := seed.plan()
				if *jsonOutput {
					return writeJSON(result)
				}
				return writeSeedResult(result)
			}

			return withClient(cfg, func(client *api.Client) error {
				result, err := runSeed(cmd.Context(), client, seed, baseDir)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				return writeSeedResult(result)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the seed file without contacting the server")
	return cmd
}

func loadSeedFile(path string) (seedFile, error) {
	var seed seedFile
	f, err := os.Open(path)
	if err != nil {
		return seed, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return seed, fmt.Errorf("parse %s: %w", path, err)
	}
	return seed, nil
}

// validate checks lightcone references and that every named file exists.
func (s seedFile) validate(baseDir string) error {
	lightcones := make(map[string]struct{}, len(s.Lightcones))
	files := []string{}
	for _, l := range s.Lightcones {
		lightcones[l.Name] = struct{}{}
		files = append(files, l.ImageFile)
	}
	for _, c := range s.Characters {
		if c.Lightcone != "" {
			if _, ok := lightcones[c.Lightcone]; !ok {
				return fmt.Errorf("character %q references unknown lightcone %q", c.Name, c.Lightcone)
			}
		}
		files = append(files, c.ImageFile)
		for _, a := range c.Abilities {
			files = append(files, a.IconFile)
		}
	}
	for _, r := range s.Relics {
		files = append(files, r.IconFile, r.SetIconFile)
	}
	for _, name := range files {
		if name == "" {
			continue
		}
		if _, err := os.Stat(seedPath(baseDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func (s seedFile) plan() seedResult {
	result := seedResult{DryRun: true, Lightcones: len(s.Lightcones), Characters: len(s.Characters), Relics: len(s.Relics)}
	count := func(name string) {
		if name != "" {
			result.Files++
		}
	}
	for _, l := range s.Lightcones {
		count(l.ImageFile)
	}
	for _, c := range s.Characters {
		count(c.ImageFile)
		result.Abilities += len(c.Abilities)
		for _, a := range c.Abilities {
			count(a.IconFile)
		}
	}
	for _, r := range s.Relics {
		count(r.IconFile)
		count(r.SetIconFile)
	}
	return result
}

// runSeed creates lightcones first so characters can equip them by name,
// then characters with their abilities, then relics.
func runSeed(ctx context.Context, client *api.Client, seed seedFile, baseDir string) (seedResult, error) {
	var result seedResult
	upload := func(resource string, id int64, field, name string) error {
		if name == "" {
			return nil
		}
		f, err := os.Open(seedPath(baseDir, name))
		if err != nil {
			return err
		}
		defer f.Close()
		if err := client.UploadFile(ctx, resource, id, field, filepath.Base(name), f, nil); err != nil {
			return fmt.Errorf("upload %s for %s %d: %w", field, singularResource[resource], id, err)
		}
		result.Files++
		return nil
	}

	lightconeIDs := make(map[string]int64, len(seed.Lightcones))
	for _, l := range seed.Lightcones {
		created, err := client.CreateLightcone(ctx, l.LightconeCreateRequest)
		if err != nil {
			return result, fmt.Errorf("create lightcone %q: %w", l.Name, err)
		}
		lightconeIDs[l.Name] = created.ID
		result.Lightcones++
		if err := upload(resourceLightcones, created.ID, "image", l.ImageFile); err != nil {
			return result, err
		}
	}

	for _, c := range seed.Characters {
		req := c.CharacterCreateRequest
		if c.Lightcone != "" {
			id, ok := lightconeIDs[c.Lightcone]
			if !ok {
				return result, fmt.Errorf("character %q references unknown lightcone %q", c.Name, c.Lightcone)
			}
			req.LightconeID = &id
		}
		created, err := client.CreateCharacter(ctx, req)
		if err != nil {
			return result, fmt.Errorf("create character %q: %w", c.Name, err)
		}
		result.Characters++
		if err := upload(resourceCharacters, created.ID, "image", c.ImageFile); err != nil {
			return result, err
		}

		for _, a := range c.Abilities {
			abilityReq := a.AbilityCreateRequest
			abilityReq.CharacterID = created.ID
			ability, err := client.CreateAbility(ctx, abilityReq)
			if err != nil {
				return result, fmt.Errorf("create ability %q of %q: %w", a.Name, c.Name, err)
			}
			result.Abilities++
			if err := upload(resourceAbilities, ability.ID, "icon", a.IconFile); err != nil {
				return result, err
			}
		}
	}

	for _, r := range seed.Relics {
		created, err := client.CreateRelic(ctx, r.RelicCreateRequest)
		if err != nil {
			return result, fmt.Errorf("create relic %q: %w", r.Name, err)
		}
		result.Relics++
		if err := upload(resourceRelics, created.ID, "icon", r.IconFile); err != nil {
			return result, err
		}
		if err := upload(resourceRelics, created.ID, "set_icon", r.SetIconFile); err != nil {
			return result, err
		}
	}
	return result, nil
}

func seedPath(baseDir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(baseDir, filepath.FromSlash(strings.TrimSpace(name)))
}

func writeSeedResult(result seedResult) error {
	prefix := "created"
	if result.DryRun {
		prefix = "dry run: would create"
	}
	return writePlain("%s %d lightcones, %d characters, %d abilities, %d relics; %d files\n",
		prefix, result.Lightcones, result.Characters, result.Abilities, result.Relics, result.Files)
}
