package main

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"silverrail/internal/config"
)

var (
	configKeyBullet = regexp.MustCompile("^- `([a-z_.]+)`")
	envKeyPattern   = regexp.MustCompile(`SILVERRAIL_[A-Z0-9_]+`)
)

func TestReadmeDocumentsEveryConfigKey(t *testing.T) {
	readme := readRepoReadme(t)

	var documented []string
	inSection := false
	scanner := bufio.NewScanner(strings.NewReader(readme))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "Supported config keys:" {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if m := configKeyBullet.FindStringSubmatch(line); m != nil {
			documented = append(documented, m[1])
			continue
		}
		if line != "" && len(documented) > 0 {
			break
		}
	}

	if got, want := sortedSet(documented), sortedSet(config.AllowedKeys()); !slices.Equal(got, want) {
		t.Fatalf("README config keys mismatch\ndocumented: %v\nallowed:    %v", got, want)
	}
}

func TestReadmeCommandsMatchCLI(t *testing.T) {
	block := fencedBlockAfter(t, readRepoReadme(t), "## Commands")

	var documented []string
	for _, line := range strings.Split(block, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "silverrail" {
			continue
		}
		var path []string
		for _, field := range fields[1:] {
			if strings.ContainsAny(field[:1], "#<[-") {
				break
			}
			path = append(path, field)
		}
		documented = append(documented, strings.Join(path, " "))
	}

	cfg := config.Default()
	actual := leafCommandPaths(newRootCmd(&cfg), nil)

	if got, want := sortedSet(documented), sortedSet(actual); !slices.Equal(got, want) {
		t.Fatalf("README command list mismatch\ndocumented: %v\ncli:        %v", got, want)
	}
}

func TestReadmeDocumentsRuntimeEnvironment(t *testing.T) {
	documented := sortedSet(envKeyPattern.FindAllString(readRepoReadme(t), -1))

	for _, key := range []string{
		"SILVERRAIL_API_URL",
		"SILVERRAIL_DB",
		"SILVERRAIL_MEDIA_ROOT",
		"SILVERRAIL_HTTP_TIMEOUT",
		"SILVERRAIL_LOG_LEVEL",
		"SILVERRAIL_CONFIG_DIR",
		"SILVERRAIL_TRUST_PROJECT_CONFIG",
		"SILVERRAIL_UPLOAD_ALLOWED_MEDIA_TYPES",
		"SILVERRAIL_DB_MAX_OPEN_CONNS",
		"SILVERRAIL_DB_MAX_IDLE_CONNS",
		"SILVERRAIL_DB_CONN_MAX_LIFETIME",
		"SILVERRAIL_API_TOKEN",
		"SILVERRAIL_ALLOW_REMOTE",
	} {
		if !slices.Contains(documented, key) {
			t.Errorf("README does not mention %s", key)
		}
	}
}

func readRepoReadme(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "README.md"))
	if err != nil {
		t.Fatalf("read README.md: %v", err)
	}
	return string(data)
}

// fencedBlockAfter returns the first ```bash block following heading.
func fencedBlockAfter(t *testing.T, readme, heading string) string {
	t.Helper()
	_, section, ok := strings.Cut(readme, heading)
	if !ok {
		t.Fatalf("README has no %q section", heading)
	}
	_, rest, ok := strings.Cut(section, "```bash")
	if !ok {
		t.Fatalf("no bash fence under %q", heading)
	}
	block, _, ok := strings.Cut(rest, "```")
	if !ok {
		t.Fatalf("unterminated fence under %q", heading)
	}
	return block
}

func leafCommandPaths(cmd *cobra.Command, prefix []string) []string {
	var paths []string
	children := 0
	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}
		children++
		paths = append(paths, leafCommandPaths(child, append(slices.Clone(prefix), child.Name()))...)
	}
	if children == 0 && len(prefix) > 0 {
		paths = append(paths, strings.Join(prefix, " "))
	}
	return paths
}

func sortedSet(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
