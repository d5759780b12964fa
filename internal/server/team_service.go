package server

import (
	"context"
	"fmt"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

// TeamService encapsulates team operations. Teams are private to their owner;
// admins see every team.
type TeamService struct {
	store store.CatalogueStore
}

func NewTeamService(st store.CatalogueStore) *TeamService {
	return &TeamService{store: st}
}

func (s *TeamService) List(ctx context.Context, principal authPrincipal) ([]models.Team, error) {
	owner := principal.OwnerID()
	if principal.IsAdmin() {
		owner = ""
	}
	teams, err := s.store.ListTeams(ctx, owner)
	if err != nil {
		return nil, storeFailure(err)
	}
	return teams, nil
}

func (s *TeamService) Get(ctx context.Context, principal authPrincipal, id int64) (*models.Team, error) {
	return s.load(ctx, principal, id)
}

func (s *TeamService) Create(ctx context.Context, principal authPrincipal, req api.TeamRequest) (*models.Team, error) {
	t := &models.Team{OwnerID: principal.OwnerID()}
	if err := s.apply(ctx, t, req); err != nil {
		return nil, err
	}
	if err := s.store.CreateTeam(ctx, t); err != nil {
		return nil, teamStoreError(err)
	}
	return t, nil
}

// Update replaces the name and members of a team.
func (s *TeamService) Update(ctx context.Context, principal authPrincipal, id int64, req api.TeamRequest) (*models.Team, error) {
	t, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, t, req); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTeam(ctx, t); err != nil {
		return nil, teamStoreError(err)
	}
	return t, nil
}

func (s *TeamService) Delete(ctx context.Context, principal authPrincipal, id int64) error {
	if _, err := s.load(ctx, principal, id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteTeam(ctx, id)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return teamNotFound(id)
	}
	return nil
}

// load returns the team when principal may see it. Teams of other owners are
// reported as missing.
func (s *TeamService) load(ctx context.Context, principal authPrincipal, id int64) (*models.Team, error) {
	t, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if t == nil || (!principal.IsAdmin() && t.OwnerID != principal.OwnerID()) {
		return nil, teamNotFound(id)
	}
	return t, nil
}

func (s *TeamService) apply(ctx context.Context, t *models.Team, req api.TeamRequest) error {
	name, err := normalizeName(req.Name)
	if err != nil {
		return err
	}
	members, err := s.validateMembers(ctx, req.Members)
	if err != nil {
		return err
	}
	t.Name = name
	t.Members = members
	return nil
}

func (s *TeamService) validateMembers(ctx context.Context, reqs []api.TeamMemberRequest) ([]models.TeamMember, error) {
	if len(reqs) > models.TeamMaxMembers {
		return nil, invalidTeam(fmt.Errorf("a team has at most %d members", models.TeamMaxMembers))
	}

	members := make([]models.TeamMember, 0, len(reqs))
	seen := make(map[int64]struct{}, len(reqs))
	for _, req := range reqs {
		if req.CharacterID <= 0 {
			return nil, invalidTeam(fmt.Errorf("character_id is required"))
		}
		if _, dup := seen[req.CharacterID]; dup {
			return nil, invalidTeam(fmt.Errorf("character %d appears twice", req.CharacterID))
		}
		seen[req.CharacterID] = struct{}{}

		exists, err := s.store.CharacterExists(ctx, req.CharacterID)
		if err != nil {
			return nil, storeFailure(err)
		}
		if !exists {
			return nil, invalidTeam(fmt.Errorf("character %d does not exist", req.CharacterID))
		}
		if req.LightconeID != nil {
			exists, err := s.store.LightconeExists(ctx, *req.LightconeID)
			if err != nil {
				return nil, storeFailure(err)
			}
			if !exists {
				return nil, invalidTeam(fmt.Errorf("lightcone %d does not exist", *req.LightconeID))
			}
		}
		if err := s.validateRelics(ctx, req.RelicIDs); err != nil {
			return nil, err
		}

		members = append(members, models.TeamMember{
			CharacterID: req.CharacterID,
			LightconeID: req.LightconeID,
			RelicIDs:    append([]int64(nil), req.RelicIDs...),
		})
	}
	return members, nil
}

// validateRelics allows up to four relics per member, at most one per slot.
func (s *TeamService) validateRelics(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > models.TeamMaxMemberRelics {
		return invalidTeam(fmt.Errorf("a member has at most %d relics", models.TeamMaxMemberRelics))
	}
	relics, err := s.store.GetRelicsByIDs(ctx, ids)
	if err != nil {
		return storeFailure(err)
	}
	slots := make(map[string]int64, len(ids))
	for _, id := range ids {
		relic, ok := relics[id]
		if !ok {
			return invalidTeam(fmt.Errorf("relic %d does not exist", id))
		}
		if other, taken := slots[relic.Slot]; taken {
			return invalidTeam(fmt.Errorf("relics %d and %d share slot %s", other, id, relic.Slot))
		}
		slots[relic.Slot] = id
	}
	return nil
}

func teamStoreError(err error) error {
	if isForeignKeyConstraint(err) {
		return invalidTeam(fmt.Errorf("team references a missing record"))
	}
	return storeFailure(err)
}

func invalidTeam(err error) error {
	return badRequestCode(err, ErrCodeInvalidTeam)
}

func teamNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("team %d not found", id), ErrCodeTeamNotFound)
}
