package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.APIURL != "http://127.0.0.1:7480" {
		t.Fatalf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.MediaURL != DefaultMediaURL {
		t.Fatalf("expected default media url %q, got %q", DefaultMediaURL, cfg.MediaURL)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Uploads.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Fatalf("expected max upload default %d, got %d", DefaultMaxUploadBytes, cfg.Uploads.MaxUploadBytes)
	}
	if cfg.Uploads.MultipartMaxMemory != DefaultMultipartMaxMemory {
		t.Fatalf("expected multipart default %d, got %d", DefaultMultipartMaxMemory, cfg.Uploads.MultipartMaxMemory)
	}
	if len(cfg.Uploads.AllowedMediaTypes) != 4 {
		t.Fatalf("expected 4 default media types, got %v", cfg.Uploads.AllowedMediaTypes)
	}
	if cfg.Throttle.AnonPerDay != 100 || cfg.Throttle.UserPerDay != 1500 || cfg.Throttle.RegistrationPerDay != 3 {
		t.Fatalf("unexpected throttle defaults: %+v", cfg.Throttle)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`api_url = "http://localhost:9999"
log_level = "warn"
media_root = "/srv/media"

[throttle]
anon_per_day = 7

[metrics]
enabled = false
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:9999" {
		t.Fatalf("expected api_url 'http://localhost:9999', got %q", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.MediaRoot != "/srv/media" {
		t.Fatalf("expected media_root, got %q", cfg.MediaRoot)
	}
	if cfg.Throttle.AnonPerDay != 7 {
		t.Fatalf("expected anon_per_day 7, got %d", cfg.Throttle.AnonPerDay)
	}
	if cfg.Throttle.UserPerDay != DefaultUserPerDay {
		t.Fatalf("expected untouched user_per_day default, got %d", cfg.Throttle.UserPerDay)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled")
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFile("/nonexistent/path/.silverrail.toml", &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("defaults should be preserved")
	}
}

func TestLoadFileInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("api_url = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := loadFile(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range []string{
		"api_url",
		"db_path",
		"media_root",
		"media_url",
		"log_level",
		"log_file",
		"uploads.max_upload_bytes",
		"uploads.multipart_max_memory",
		"uploads.allowed_media_types",
		"throttle.anon_per_day",
		"throttle.user_per_day",
		"throttle.registration_per_day",
		"metrics.enabled",
	} {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	for _, key := range []string{"project_prefix", "uploads", "throttle.per_hour", ""} {
		if IsAllowedKey(key) {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestGetKey(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "/tmp/catalogue.db"
	cfg.LogFile = "/var/log/silverrail.log"

	tests := []struct {
		key  string
		want string
	}{
		{key: "api_url", want: DefaultAPIURL},
		{key: "db_path", want: "/tmp/catalogue.db"},
		{key: "media_url", want: "/media/"},
		{key: "log_level", want: "info"},
		{key: "log_file", want: "/var/log/silverrail.log"},
		{key: "uploads.max_upload_bytes", want: "10485760"},
		{key: "uploads.multipart_max_memory", want: "8388608"},
		{key: "uploads.allowed_media_types", want: "image/gif,image/jpeg,image/png,image/webp"},
		{key: "throttle.anon_per_day", want: "100"},
		{key: "throttle.user_per_day", want: "1500"},
		{key: "throttle.registration_per_day", want: "3"},
		{key: "metrics.enabled", want: "true"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := cfg.Get(tc.key)
			if err != nil {
				t.Fatalf("get %s: %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("get %s: expected %q, got %q", tc.key, tc.want, got)
			}
		})
	}

	if _, err := cfg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.toml")
	if err := SetKey(path, "api_url", "http://localhost:1234"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:1234" {
		t.Fatalf("expected api_url, got %q", cfg.APIURL)
	}
}

func TestSetKeyUpdatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(path, []byte("api_url = \"http://old:1\"\nmedia_url = \"/static/\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := SetKey(path, "api_url", "http://new:2"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://new:2" {
		t.Fatalf("expected api_url updated, got %q", cfg.APIURL)
	}
	if cfg.MediaURL != "/static/" {
		t.Fatalf("expected media_url preserved, got %q", cfg.MediaURL)
	}
}

func TestSetKeyLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := SetKey(path, "log_level", "DEBUG"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level 'debug', got %q", cfg.LogLevel)
	}

	if err := SetKey(path, "log_level", "verbose"); err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
}

func TestSetKeyInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := SetKey(path, "invalid_key", "value"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestSetKeyValidatesNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	tests := []struct {
		key   string
		value string
	}{
		{key: "uploads.max_upload_bytes", value: "0"},
		{key: "uploads.max_upload_bytes", value: "lots"},
		{key: "throttle.anon_per_day", value: "-1"},
		{key: "metrics.enabled", value: "maybe"},
	}
	for _, tc := range tests {
		if err := SetKey(path, tc.key, tc.value); err == nil {
			t.Fatalf("expected %s=%q to be rejected", tc.key, tc.value)
		}
	}
}

func TestSetNestedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.toml")
	if err := SetKey(path, "throttle.user_per_day", "321"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}
	if err := SetKey(path, "throttle.anon_per_day", "0"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}
	if err := SetKey(path, "uploads.allowed_media_types", "image/png, image/webp"); err != nil {
		t.Fatalf("set media types: %v", err)
	}
	if err := SetKey(path, "metrics.enabled", "false"); err != nil {
		t.Fatalf("set metrics: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Throttle.UserPerDay != 321 {
		t.Fatalf("expected user_per_day 321, got %d", cfg.Throttle.UserPerDay)
	}
	if cfg.Throttle.AnonPerDay != 0 {
		t.Fatalf("expected anon_per_day 0, got %d", cfg.Throttle.AnonPerDay)
	}
	if !reflect.DeepEqual(cfg.Uploads.AllowedMediaTypes, []string{"image/png", "image/webp"}) {
		t.Fatalf("unexpected media types: %v", cfg.Uploads.AllowedMediaTypes)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled")
	}
}

func TestSetNestedKeyRejectsScalarParent(t *testing.T) {
	data := map[string]any{"throttle": "flat"}
	if err := setNestedKey(data, []string{"throttle", "anon_per_day"}, 1); err == nil {
		t.Fatal("expected error when parent is not a table")
	}
}

func TestConfigDirOverridePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SILVERRAIL_CONFIG_DIR", dir)

	globalPath, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	if globalPath != filepath.Join(dir, ConfigFileName) {
		t.Fatalf("unexpected global path: %s", globalPath)
	}

	projectPath, err := ProjectPath()
	if err != nil {
		t.Fatalf("project path: %v", err)
	}
	if projectPath != filepath.Join(dir, ConfigFileName) {
		t.Fatalf("unexpected project path: %s", projectPath)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SILVERRAIL_CONFIG_DIR",
		"SILVERRAIL_TRUST_PROJECT_CONFIG",
		"SILVERRAIL_API_URL",
		"SILVERRAIL_DB",
		"SILVERRAIL_MEDIA_ROOT",
		"SILVERRAIL_UPLOAD_ALLOWED_MEDIA_TYPES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDirOverride(t *testing.T) {
	clearEnv(t)
	configDir := t.TempDir()
	cfgPath := filepath.Join(configDir, ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("api_url = \"http://127.0.0.1:9001\"\n"), 0644); err != nil {
		t.Fatalf("write override config: %v", err)
	}

	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(workspace, ConfigFileName), []byte("api_url = \"http://workspace:1\"\n"), 0644); err != nil {
		t.Fatalf("write workspace config: %v", err)
	}
	chdir(t, workspace)

	t.Setenv("SILVERRAIL_CONFIG_DIR", configDir)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9001" {
		t.Fatalf("expected config-dir api_url override, got %q", cfg.APIURL)
	}
	if cfg.DBPath != filepath.Join(workspace, DefaultDBFileName) {
		t.Fatalf("expected default workspace db path, got %q", cfg.DBPath)
	}
	if cfg.MediaRoot != filepath.Join(workspace, DefaultMediaDir) {
		t.Fatalf("expected media root next to db, got %q", cfg.MediaRoot)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SILVERRAIL_API_URL", "http://example.com:8080")
	t.Setenv("SILVERRAIL_DB", "/tmp/override.db")
	t.Setenv("SILVERRAIL_UPLOAD_ALLOWED_MEDIA_TYPES", "IMAGE/PNG, image/png; charset=binary,bogus/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://example.com:8080" {
		t.Fatalf("expected env override for API URL, got %q", cfg.APIURL)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("expected env override for DB path, got %q", cfg.DBPath)
	}
	if cfg.MediaRoot != filepath.Join("/tmp", DefaultMediaDir) {
		t.Fatalf("expected media root derived from db path, got %q", cfg.MediaRoot)
	}
	if !reflect.DeepEqual(cfg.Uploads.AllowedMediaTypes, []string{"image/png"}) {
		t.Fatalf("expected normalized media types, got %v", cfg.Uploads.AllowedMediaTypes)
	}
}

func TestMediaRootEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SILVERRAIL_DB", "/tmp/override.db")
	t.Setenv("SILVERRAIL_MEDIA_ROOT", "/srv/assets")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MediaRoot != "/srv/assets" {
		t.Fatalf("expected media root override, got %q", cfg.MediaRoot)
	}
}

func TestLoadFallsBackToDefaultsWhenConfiguredEmpty(t *testing.T) {
	clearEnv(t)
	homeDir := t.TempDir()
	workspace := t.TempDir()

	body := "log_level = \"\"\nmedia_url = \"\"\n[uploads]\nmax_upload_bytes = 0\nallowed_media_types = []\n"
	if err := os.WriteFile(filepath.Join(homeDir, ConfigFileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	chdir(t, workspace)
	t.Setenv("HOME", homeDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.MediaURL != DefaultMediaURL {
		t.Fatalf("expected default media url, got %q", cfg.MediaURL)
	}
	if cfg.Uploads.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Fatalf("expected default max upload, got %d", cfg.Uploads.MaxUploadBytes)
	}
	if len(cfg.Uploads.AllowedMediaTypes) != 4 {
		t.Fatalf("expected default media types, got %v", cfg.Uploads.AllowedMediaTypes)
	}
}

func TestLoadProjectConfigTrust(t *testing.T) {
	tests := []struct {
		name        string
		trust       string
		wantURL     string
		wantTrusted bool
	}{
		{name: "ignored by default", trust: "", wantURL: "http://global:1"},
		{name: "applied when trusted", trust: "true", wantURL: "http://project:2", wantTrusted: true},
		{name: "invalid env value", trust: "definitely-not-bool", wantURL: "http://global:1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			homeDir := t.TempDir()
			workspace := t.TempDir()

			if err := os.WriteFile(filepath.Join(homeDir, ConfigFileName), []byte("api_url = \"http://global:1\"\n"), 0o644); err != nil {
				t.Fatalf("write home config: %v", err)
			}
			projectPath := filepath.Join(workspace, ConfigFileName)
			if err := os.WriteFile(projectPath, []byte("api_url = \"http://project:2\"\n"), 0o644); err != nil {
				t.Fatalf("write project config: %v", err)
			}
			chdir(t, workspace)
			t.Setenv("HOME", homeDir)
			t.Setenv("SILVERRAIL_TRUST_PROJECT_CONFIG", tc.trust)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.APIURL != tc.wantURL {
				t.Fatalf("expected api_url %q, got %q", tc.wantURL, cfg.APIURL)
			}
			if tc.wantTrusted && cfg.TrustedProjectConfigPath != projectPath {
				t.Fatalf("expected trusted project config path %q, got %q", projectPath, cfg.TrustedProjectConfigPath)
			}
			if !tc.wantTrusted && cfg.TrustedProjectConfigPath != "" {
				t.Fatalf("expected no trusted project config path, got %q", cfg.TrustedProjectConfigPath)
			}
		})
	}
}
