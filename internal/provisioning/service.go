// Package provisioning creates competition teams, their sponsoring
// organizations and login accounts on a DOMjudge contest server. All state
// is scoped to one invocation: a snapshot of the server seeds in-memory
// exclusion sets, identifiers and usernames are allocated against those, and
// nothing is reserved across requests. Cross-request duplicate races are
// resolved by the contest server rejecting the second write.
package provisioning

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bircpc/domjudge-automation/internal/domjudge"
	"github.com/bircpc/domjudge-automation/internal/models"
	"github.com/bircpc/domjudge-automation/internal/observability"
)

const dryRunMessage = "Dry run - team would be created"

// Service orchestrates team provisioning against a Directory.
type Service struct {
	dir     domjudge.Directory
	groupID string
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a provisioning service. Every provisioned team joins
// the single competition group identified by groupID.
func NewService(dir domjudge.Directory, groupID string, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{dir: dir, groupID: groupID, metrics: metrics, logger: logger}
}

// snapshot is a point-in-time read of the contest server, taken once per
// invocation and discarded with the response.
type snapshot struct {
	orgs  map[string]string
	teams map[string]int
	users map[string]int
}

// exclusions are the values considered taken for the rest of the
// invocation: pre-existing ones from the snapshot plus everything allocated
// so far in this run.
type exclusions struct {
	ids       map[int]struct{}
	usernames map[string]struct{}
}

// fetchSnapshot issues the three list reads concurrently; none of the maps
// are touched until all three return.
func (s *Service) fetchSnapshot(ctx context.Context) (*snapshot, error) {
	var (
		wg                       sync.WaitGroup
		snap                     snapshot
		orgErr, teamErr, userErr error
	)
	wg.Add(3)
	go func() { defer wg.Done(); snap.orgs, orgErr = s.dir.ListOrganizations(ctx) }()
	go func() { defer wg.Done(); snap.teams, teamErr = s.dir.ListTeams(ctx) }()
	go func() { defer wg.Done(); snap.users, userErr = s.dir.ListUsers(ctx) }()
	wg.Wait()

	for _, err := range []error{orgErr, teamErr, userErr} {
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot: %w", err)
		}
	}
	return &snap, nil
}

func (s *snapshot) exclusions() *exclusions {
	excl := &exclusions{
		ids:       make(map[int]struct{}, len(s.teams)+len(s.users)),
		usernames: make(map[string]struct{}, len(s.users)),
	}
	for _, id := range s.teams {
		excl.ids[id] = struct{}{}
	}
	for username, id := range s.users {
		excl.ids[id] = struct{}{}
		excl.usernames[username] = struct{}{}
	}
	return excl
}

func validate(req *models.ProvisioningRequest) error {
	if req.Team == "" || req.Organization == "" {
		return ErrValidation
	}
	return nil
}

// teamDescription joins member names and phone with a separator, trimmed.
// Empty when both are absent.
func teamDescription(names, phone string) string {
	if names == "" && phone == "" {
		return ""
	}
	return strings.TrimSpace(names + " | " + phone)
}

// ProvisionOne processes a single request against a fresh snapshot. The
// returned error is one of the kinds in errors.go or a wrapped contest
// server failure; on error the Result is zero.
func (s *Service) ProvisionOne(ctx context.Context, req *models.ProvisioningRequest, dryRun bool) (models.Result, error) {
	if err := validate(req); err != nil {
		return models.Result{}, err
	}

	snap, err := s.fetchSnapshot(ctx)
	if err != nil {
		return models.Result{}, err
	}
	if _, exists := snap.teams[req.Team]; exists {
		return models.Result{}, fmt.Errorf("team '%s' %w", req.Team, ErrTeamExists)
	}

	res, err := s.provisionItem(ctx, req, snap, snap.exclusions(), dryRun)
	if err != nil {
		s.metrics.ItemProcessed(observability.OutcomeFailed, 1)
		return models.Result{}, err
	}
	s.metrics.ItemProcessed(observability.OutcomeCreated, 1)
	return res, nil
}

// ProvisionMany processes a batch against one shared snapshot and one shared
// pair of exclusion sets, so identifiers and usernames stay unique across
// the whole batch. A per-item failure is recorded in that item's Result and
// the batch continues; only a snapshot failure aborts the batch as a unit.
func (s *Service) ProvisionMany(ctx context.Context, reqs []models.ProvisioningRequest, dryRun bool) models.BulkReport {
	report := models.BulkReport{
		Results:      []models.Result{},
		CreatedUsers: []models.CreatedUser{},
	}
	if len(reqs) == 0 {
		return report
	}
	report.Total = len(reqs)

	snap, err := s.fetchSnapshot(ctx)
	if err != nil {
		s.logger.Error("bulk provisioning aborted", zap.Error(err))
		s.metrics.ItemProcessed(observability.OutcomeFailed, report.Total)
		report.Failed = report.Total
		return report
	}

	// Pre-existing team names are silently elided, not failed.
	toProcess := make([]models.ProvisioningRequest, 0, len(reqs))
	for _, req := range reqs {
		if _, exists := snap.teams[req.Team]; exists {
			continue
		}
		toProcess = append(toProcess, req)
	}
	report.Skipped = report.Total - len(toProcess)

	excl := snap.exclusions()
	for i := range toProcess {
		req := &toProcess[i]
		res, err := s.provisionItem(ctx, req, snap, excl, dryRun)
		if err != nil {
			s.logger.Error("bulk item failed", zap.String("team", req.Team), zap.Error(err))
			report.Results = append(report.Results, models.Result{Success: false, Error: err.Error()})
			report.Failed++
			continue
		}
		report.Results = append(report.Results, res)
		report.CreatedUsers = append(report.CreatedUsers, models.CreatedUser{
			Team:     req.Team,
			ID:       res.UserID,
			Username: res.Username,
			Names:    req.Names,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: res.Password,
		})
		report.Created++
	}

	s.metrics.ItemProcessed(observability.OutcomeCreated, report.Created)
	s.metrics.ItemProcessed(observability.OutcomeSkipped, report.Skipped)
	s.metrics.ItemProcessed(observability.OutcomeFailed, report.Failed)
	return report
}

// provisionItem runs the shared per-item algorithm: allocate an identifier,
// resolve credentials, then either simulate (dry run) or create the
// organization, team and user in that order. A failure after a partial
// external creation is reported as failed without compensating deletes.
func (s *Service) provisionItem(ctx context.Context, req *models.ProvisioningRequest, snap *snapshot, excl *exclusions, dryRun bool) (models.Result, error) {
	if err := validate(req); err != nil {
		return models.Result{}, err
	}

	id, err := AllocateID(excl.ids, idLower, idUpper)
	if err != nil {
		return models.Result{}, err
	}

	username := req.Username
	if username == "" {
		username = UsernameForID(id)
	}
	username = ResolveUsername(username, excl.usernames)

	password := req.Password
	if password == "" {
		password = GeneratePassword(defaultPasswordLength)
	}

	if dryRun {
		return models.Result{
			Success:  true,
			Message:  dryRunMessage,
			TeamID:   id,
			UserID:   id,
			Username: username,
			Password: password,
		}, nil
	}

	if _, err := s.dir.CreateOrGetOrganization(ctx, req.Organization, snap.orgs); err != nil {
		return models.Result{}, fmt.Errorf("create organization '%s': %w", req.Organization, err)
	}

	team := &models.Team{
		ID:             strconv.Itoa(id),
		Name:           req.Team,
		DisplayName:    req.Team,
		Description:    teamDescription(req.Names, req.Phone),
		OrganizationID: req.Organization,
		GroupIDs:       []string{s.groupID},
	}
	createdTeam, err := s.dir.CreateTeam(ctx, team)
	if err != nil {
		return models.Result{}, fmt.Errorf("create team '%s': %w", req.Team, err)
	}

	user := &models.User{
		ID:       strconv.Itoa(id),
		Username: username,
		Name:     req.Team,
		Email:    req.Email,
		Password: password,
		Enabled:  true,
		TeamID:   strconv.Itoa(id),
		Roles:    []string{models.RoleTeam},
	}
	createdUser, err := s.dir.CreateUser(ctx, user)
	if err != nil {
		return models.Result{}, fmt.Errorf("create user '%s': %w", username, err)
	}

	s.logger.Info("team provisioned",
		zap.String("team", req.Team),
		zap.Int("id", id),
		zap.String("username", username),
	)

	// The contest server may reassign identifiers; report what it echoed.
	return models.Result{
		Success:  true,
		TeamID:   reportedID(createdTeam.ID, id),
		UserID:   reportedID(createdUser.ID, id),
		Username: username,
		Password: password,
	}, nil
}

// reportedID prefers the identifier echoed by the contest server, falling
// back to the locally allocated one when the echo is absent or non-numeric.
func reportedID(echoed string, allocated int) int {
	if n, err := strconv.Atoi(echoed); err == nil {
		return n
	}
	return allocated
}
