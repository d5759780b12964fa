package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"silverrail/internal/api"
	"silverrail/internal/models"
)

func TestCatalogueWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.registerAndLogin(t, "trailblazer")
	body := api.CharacterCreateRequest{Name: "Kafka", Element: "lightning", Path: "nihility", Rarity: 5}

	expectErrorCode(t, env.do(t, http.MethodPost, "/v1/characters", body), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectErrorCode(t, env.do(t, http.MethodPost, "/v1/characters", body, withCookie(cookie)), http.StatusForbidden, ErrCodeForbidden)
	expectStatus(t, env.do(t, http.MethodPost, "/v1/characters", body, asAdmin()), http.StatusCreated)

	// Reads stay public.
	expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil), http.StatusOK)
}

func TestCharacterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  api.CharacterCreateRequest
		code int
	}{
		{"missing name", api.CharacterCreateRequest{Element: "fire", Path: "destruction", Rarity: 4}, ErrCodeMissingRequired},
		{"bad element", api.CharacterCreateRequest{Name: "X", Element: "water", Path: "destruction", Rarity: 4}, ErrCodeInvalidElement},
		{"bad path", api.CharacterCreateRequest{Name: "X", Element: "fire", Path: "chaos", Rarity: 4}, ErrCodeInvalidPath},
		{"bad rarity", api.CharacterCreateRequest{Name: "X", Element: "fire", Path: "destruction", Rarity: 3}, ErrCodeInvalidRarity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectErrorCode(t, env.do(t, http.MethodPost, "/v1/characters", tc.req, asAdmin()), http.StatusBadRequest, tc.code)
		})
	}
}

func TestCharacterListFilters(t *testing.T) {
	env := newTestEnv(t)
	for _, req := range []api.CharacterCreateRequest{
		{Name: "Himeko", Element: "fire", Path: "erudition", Rarity: 5},
		{Name: "Asta", Element: "fire", Path: "harmony", Rarity: 4},
		{Name: "Seele", Element: "quantum", Path: "the hunt", Rarity: 5},
	} {
		expectStatus(t, env.do(t, http.MethodPost, "/v1/characters", req, asAdmin()), http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/v1/characters?element=fire", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]api.CharacterResponse](t, w); len(got) != 2 {
		t.Fatalf("expected 2 fire characters, got %d", len(got))
	}

	w = env.do(t, http.MethodGet, "/v1/characters?rarity=5&limit=1", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]api.CharacterResponse](t, w); len(got) != 1 || got[0].Rarity != 5 {
		t.Fatalf("unexpected filtered page: %+v", got)
	}

	expectErrorCode(t, env.do(t, http.MethodGet, "/v1/characters?element=water", nil), http.StatusBadRequest, ErrCodeInvalidElement)
}

func TestCharacterDetailIncludesRelations(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/lightcones", api.LightconeCreateRequest{
		Name: "Patience Is All You Need", Path: "nihility", Rarity: 5, Ability: "Spider Web",
	}, asAdmin())
	expectStatus(t, w, http.StatusCreated)
	cone := decode[api.LightconeResponse](t, w)

	w = env.do(t, http.MethodPost, "/v1/characters", api.CharacterCreateRequest{
		Name: "Kafka", Element: "lightning", Path: "nihility", Rarity: 5, LightconeID: &cone.ID,
	}, asAdmin())
	expectStatus(t, w, http.StatusCreated)
	kafka := decode[api.CharacterResponse](t, w)

	expectStatus(t, env.do(t, http.MethodPost, "/v1/abilities", api.AbilityCreateRequest{
		CharacterID: kafka.ID, Name: "Gentle but Cruel", Type: "ultimate", Targeting: "aoe",
	}, asAdmin()), http.StatusCreated)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/characters/%d", kafka.ID), nil)
	expectStatus(t, w, http.StatusOK)
	detail := decode[api.CharacterResponse](t, w)
	if len(detail.Abilities) != 1 || detail.Abilities[0].Type != "ultimate" {
		t.Fatalf("unexpected abilities: %+v", detail.Abilities)
	}
	if len(detail.Stats) != 27 {
		t.Fatalf("expected 27 default stats, got %d", len(detail.Stats))
	}
	if detail.Lightcone == nil || detail.Lightcone.ID != cone.ID {
		t.Fatalf("expected equipped lightcone %d, got %+v", cone.ID, detail.Lightcone)
	}

	// Deleting the lightcone keeps the character with the reference cleared.
	expectStatus(t, env.do(t, http.MethodDelete, fmt.Sprintf("/v1/lightcones/%d", cone.ID), nil, asAdmin()), http.StatusNoContent)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/characters/%d", kafka.ID), nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[api.CharacterResponse](t, w); got.LightconeID != nil || got.Lightcone != nil {
		t.Fatalf("expected cleared lightcone, got %+v", got.LightconeID)
	}
}

func TestAbilityValidation(t *testing.T) {
	env := newTestEnv(t)
	kafka := env.createCharacter(t, "Kafka", "")
	negative := -1

	tests := []struct {
		name   string
		req    api.AbilityCreateRequest
		status int
		code   int
	}{
		{"unknown character", api.AbilityCreateRequest{CharacterID: 999, Name: "X", Type: "skill"}, http.StatusBadRequest, ErrCodeInvalidAbility},
		{"missing character", api.AbilityCreateRequest{Name: "X", Type: "skill"}, http.StatusBadRequest, ErrCodeMissingRequired},
		{"bad type", api.AbilityCreateRequest{CharacterID: kafka.ID, Name: "X", Type: "passive"}, http.StatusBadRequest, ErrCodeInvalidAbility},
		{"negative cost", api.AbilityCreateRequest{CharacterID: kafka.ID, Name: "X", Type: "skill", EnergyCost: &negative}, http.StatusBadRequest, ErrCodeInvalidAbility},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectErrorCode(t, env.do(t, http.MethodPost, "/v1/abilities", tc.req, asAdmin()), tc.status, tc.code)
		})
	}

	expectErrorCode(t, env.do(t, http.MethodGet, "/v1/characters/999/abilities", nil), http.StatusNotFound, ErrCodeCharacterNotFound)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	kafka := env.createCharacter(t, "Kafka", "")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/characters/%d/stats", kafka.ID), nil)
	expectStatus(t, w, http.StatusOK)
	stats := decode[[]models.Stat](t, w)
	if len(stats) != 27 {
		t.Fatalf("expected 27 default stats, got %d", len(stats))
	}

	w = env.do(t, http.MethodPut, fmt.Sprintf("/v1/characters/%d/stats/atk", kafka.ID), api.StatUpdateRequest{Value: 1358.3}, asAdmin())
	expectStatus(t, w, http.StatusOK)
	atk := decode[models.Stat](t, w)
	if atk.Category != string(models.StatCategoryBase) || atk.Value != 1358.3 {
		t.Fatalf("unexpected stat after set: %+v", atk)
	}

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/v1/stats/%d", atk.ID), api.StatUpdateRequest{Value: 1400}, asAdmin())
	expectStatus(t, w, http.StatusOK)
	if got := decode[models.Stat](t, w); got.ID != atk.ID || got.Value != 1400 {
		t.Fatalf("unexpected stat after patch: %+v", got)
	}

	expectErrorCode(t, env.do(t, http.MethodPut, fmt.Sprintf("/v1/characters/%d/stats/luck", kafka.ID), api.StatUpdateRequest{Value: 1}, asAdmin()), http.StatusBadRequest, ErrCodeInvalidStat)
	expectErrorCode(t, env.do(t, http.MethodPatch, "/v1/stats/99999", api.StatUpdateRequest{Value: 1}, asAdmin()), http.StatusNotFound, ErrCodeStatNotFound)
	expectErrorCode(t, env.do(t, http.MethodGet, "/v1/lightcones/42/stats", nil), http.StatusNotFound, ErrCodeLightconeNotFound)
}

func TestTeamsArePrivateToOwner(t *testing.T) {
	env := newTestEnv(t)
	kafka := env.createCharacter(t, "Kafka", "")
	alice := env.registerAndLogin(t, "alice")
	bob := env.registerAndLogin(t, "bob")

	req := api.TeamRequest{Name: "DoT", Members: []api.TeamMemberRequest{{CharacterID: kafka.ID}}}
	expectErrorCode(t, env.do(t, http.MethodPost, "/v1/teams", req), http.StatusUnauthorized, ErrCodeUnauthorized)

	w := env.do(t, http.MethodPost, "/v1/teams", req, withCookie(alice))
	expectStatus(t, w, http.StatusCreated)
	team := decode[models.Team](t, w)
	path := fmt.Sprintf("/v1/teams/%d", team.ID)

	expectErrorCode(t, env.do(t, http.MethodGet, path, nil, withCookie(bob)), http.StatusNotFound, ErrCodeTeamNotFound)
	expectErrorCode(t, env.do(t, http.MethodDelete, path, nil, withCookie(bob)), http.StatusNotFound, ErrCodeTeamNotFound)

	w = env.do(t, http.MethodGet, "/v1/teams", nil, withCookie(bob))
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]models.Team](t, w); len(got) != 0 {
		t.Fatalf("bob should see no teams, got %d", len(got))
	}

	w = env.do(t, http.MethodGet, "/v1/teams", nil, asAdmin())
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]models.Team](t, w); len(got) != 1 {
		t.Fatalf("admin should see every team, got %d", len(got))
	}

	renamed := api.TeamRequest{Name: "Dot Squad", Members: req.Members}
	w = env.do(t, http.MethodPut, path, renamed, withCookie(alice))
	expectStatus(t, w, http.StatusOK)
	if got := decode[models.Team](t, w); got.Name != "Dot Squad" {
		t.Fatalf("unexpected name after update: %s", got.Name)
	}
	expectStatus(t, env.do(t, http.MethodDelete, path, nil, withCookie(alice)), http.StatusNoContent)
}

func TestTeamValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAndLogin(t, "alice")

	var members []api.TeamMemberRequest
	for _, name := range []string{"Kafka", "Black Swan", "Ruan Mei", "Huohuo", "Acheron"} {
		members = append(members, api.TeamMemberRequest{CharacterID: env.createCharacter(t, name, "").ID})
	}
	head1 := env.createRelic(t, "Hat A", "head")
	head2 := env.createRelic(t, "Hat B", "head")

	tests := []struct {
		name    string
		members []api.TeamMemberRequest
	}{
		{"too many members", members},
		{"duplicate character", []api.TeamMemberRequest{members[0], members[0]}},
		{"unknown character", []api.TeamMemberRequest{{CharacterID: 999}}},
		{"duplicate relic slot", []api.TeamMemberRequest{{CharacterID: members[0].CharacterID, RelicIDs: []int64{head1.ID, head2.ID}}}},
		{"unknown relic", []api.TeamMemberRequest{{CharacterID: members[0].CharacterID, RelicIDs: []int64{999}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/teams", api.TeamRequest{Name: "Team", Members: tc.members}, withCookie(alice))
			expectErrorCode(t, w, http.StatusBadRequest, ErrCodeInvalidTeam)
		})
	}

	w := env.do(t, http.MethodPost, "/v1/teams", api.TeamRequest{Name: "Four", Members: members[:4]}, withCookie(alice))
	expectStatus(t, w, http.StatusCreated)
}

func TestAnonymousThrottle(t *testing.T) {
	env := newTestEnv(t, withThrottle(2, 0, 0))

	for i := 0; i < 2; i++ {
		expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil, fromIP("203.0.113.7")), http.StatusOK)
	}
	w := env.do(t, http.MethodGet, "/v1/characters", nil, fromIP("203.0.113.7"))
	expectErrorCode(t, w, http.StatusTooManyRequests, ErrCodeResourceExhausted)
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil, fromIP("203.0.113.8")), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil, fromIP("203.0.113.7"), asAdmin()), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/health", nil, fromIP("203.0.113.7")), http.StatusOK)
}

func TestUserThrottle(t *testing.T) {
	env := newTestEnv(t, withThrottle(0, 1, 0))
	cookie := env.registerAndLogin(t, "alice")

	expectStatus(t, env.do(t, http.MethodGet, "/v1/teams", nil, withCookie(cookie)), http.StatusOK)
	expectErrorCode(t, env.do(t, http.MethodGet, "/v1/teams", nil, withCookie(cookie)), http.StatusTooManyRequests, ErrCodeResourceExhausted)
}

func TestRegistrationThrottle(t *testing.T) {
	env := newTestEnv(t, withThrottle(0, 0, 1))

	req := api.RegisterRequest{Username: "alice", Password: "correct-horse"}
	expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/register", req, fromIP("198.51.100.1")), http.StatusCreated)

	req.Username = "bob"
	w := env.do(t, http.MethodPost, "/v1/auth/register", req, fromIP("198.51.100.1"))
	expectErrorCode(t, w, http.StatusTooManyRequests, ErrCodeResourceExhausted)
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/register", req, fromIP("198.51.100.2")), http.StatusCreated)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/v1/characters", nil), http.StatusOK)

	requests := newHTTPMetrics(env.registry).requests
	if got := testutil.ToFloat64(requests.WithLabelValues(http.MethodGet, "GET /v1/characters", "200")); got != 2 {
		t.Fatalf("expected 2 recorded requests, got %v", got)
	}

	w := env.do(t, http.MethodGet, "/metrics", nil)
	expectStatus(t, w, http.StatusOK)
	body, _ := io.ReadAll(w.Body)
	for _, name := range []string{"silverrail_http_requests_total", "silverrail_http_request_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
