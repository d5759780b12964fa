package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

// writeTable prints tab-aligned rows under header.
func writeTable(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func characterRows(items []api.CharacterResponse) [][]string {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{intToString(int(c.ID)), c.Name, c.Element, c.Path, stars(c.Rarity), orDash(c.Image)})
	}
	return rows
}

func abilityRows(items []api.AbilityResponse) [][]string {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, []string{intToString(int(a.ID)), intToString(int(a.CharacterID)), a.Name, a.Type, a.Targeting, orDash(a.Icon)})
	}
	return rows
}

func lightconeRows(items []api.LightconeResponse) [][]string {
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		rows = append(rows, []string{intToString(int(l.ID)), l.Name, l.Path, stars(l.Rarity), orDash(l.Image)})
	}
	return rows
}

func relicRows(items []api.RelicResponse) [][]string {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{intToString(int(r.ID)), r.Name, r.SetName, r.Slot, orDash(r.Icon), orDash(r.SetIcon)})
	}
	return rows
}

func writeCharacterDetail(c api.CharacterResponse) error {
	lines := []string{
		fmt.Sprintf("id: %d", c.ID),
		fmt.Sprintf("name: %s", c.Name),
		fmt.Sprintf("element: %s", c.Element),
		fmt.Sprintf("path: %s", c.Path),
		fmt.Sprintf("rarity: %s", stars(c.Rarity)),
		fmt.Sprintf("created_at: %s", formatTime(c.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(c.UpdatedAt)),
	}
	if c.Image != "" {
		lines = append(lines, fmt.Sprintf("image: %s (%s)", c.Image, c.ImageURL))
	}
	if c.ImageHash != "" {
		lines = append(lines, fmt.Sprintf("image_hash: %s", c.ImageHash))
	}
	if c.Lightcone != nil {
		lines = append(lines, fmt.Sprintf("lightcone: %s (#%d)", c.Lightcone.Name, c.Lightcone.ID))
	}
	if len(c.Abilities) > 0 {
		lines = append(lines, "abilities:")
		for _, a := range c.Abilities {
			lines = append(lines, fmt.Sprintf("  - %s [%s, %s]", a.Name, a.Type, a.Targeting))
		}
	}
	var nonZero []string
	for _, s := range c.Stats {
		if s.Value != 0 {
			nonZero = append(nonZero, fmt.Sprintf("%s=%g", s.Type, s.Value))
		}
	}
	if len(nonZero) > 0 {
		lines = append(lines, "stats: "+strings.Join(nonZero, ", "))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func stars(rarity int) string {
	return fmt.Sprintf("%d*", rarity)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
