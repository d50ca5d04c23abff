package provisioning

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bircpc/domjudge-automation/internal/models"
)

// fakeDirectory is an in-memory Directory seeded with a snapshot. Create
// calls mutate it the way the contest server would.
type fakeDirectory struct {
	orgs  map[string]string
	teams map[string]int
	users map[string]int

	createdOrgs  []string
	createdTeams []*models.Team
	createdUsers []*models.User

	listErr       error
	failTeamNamed string
	reassignID    string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		orgs:  map[string]string{},
		teams: map[string]int{},
		users: map[string]int{},
	}
}

func (f *fakeDirectory) ListOrganizations(ctx context.Context) (map[string]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]string, len(f.orgs))
	for k, v := range f.orgs {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDirectory) ListTeams(ctx context.Context) (map[string]int, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]int, len(f.teams))
	for k, v := range f.teams {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDirectory) ListUsers(ctx context.Context) (map[string]int, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]int, len(f.users))
	for k, v := range f.users {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDirectory) CreateOrGetOrganization(ctx context.Context, name string, existing map[string]string) (*models.Organization, error) {
	if id, ok := existing[name]; ok {
		return &models.Organization{ID: id, Name: name}, nil
	}
	f.createdOrgs = append(f.createdOrgs, name)
	existing[name] = name
	return &models.Organization{ID: name, Name: name}, nil
}

func (f *fakeDirectory) CreateTeam(ctx context.Context, team *models.Team) (*models.Team, error) {
	if team.Name == f.failTeamNamed {
		return nil, errors.New("contest server rejected team")
	}
	f.createdTeams = append(f.createdTeams, team)
	created := *team
	if f.reassignID != "" {
		created.ID = f.reassignID
	}
	return &created, nil
}

func (f *fakeDirectory) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	f.createdUsers = append(f.createdUsers, user)
	created := *user
	if f.reassignID != "" {
		created.ID = f.reassignID
	}
	return &created, nil
}

func newTestService(dir *fakeDirectory) *Service {
	return NewService(dir, "3", nil, zap.NewNop())
}

func TestProvisionOneEmptySnapshot(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir)

	res, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A",
	}, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, res.TeamID, idLower)
	assert.LessOrEqual(t, res.TeamID, idUpper)
	assert.Equal(t, res.TeamID, res.UserID, "team and user share one identifier")
	assert.Equal(t, UsernameForID(res.TeamID), res.Username)
	assert.Len(t, res.Password, defaultPasswordLength)

	require.Len(t, dir.createdTeams, 1)
	team := dir.createdTeams[0]
	assert.Equal(t, "Team Alpha", team.Name)
	assert.Equal(t, "Team Alpha", team.DisplayName)
	assert.Empty(t, team.Description)
	assert.Equal(t, "Uni A", team.OrganizationID)
	assert.Equal(t, []string{"3"}, team.GroupIDs)

	require.Len(t, dir.createdUsers, 1)
	user := dir.createdUsers[0]
	assert.Equal(t, strconv.Itoa(res.TeamID), user.TeamID)
	assert.True(t, user.Enabled)
	assert.Equal(t, []string{models.RoleTeam}, user.Roles)

	assert.Equal(t, []string{"Uni A"}, dir.createdOrgs)
}

func TestProvisionOneValidation(t *testing.T) {
	svc := newTestService(newFakeDirectory())

	_, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{Team: "Team Alpha"}, false)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{Organization: "Uni A"}, false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProvisionOneConflict(t *testing.T) {
	dir := newFakeDirectory()
	dir.teams["Team Alpha"] = 10001
	svc := newTestService(dir)

	_, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A",
	}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTeamExists)
	assert.Contains(t, err.Error(), "team 'Team Alpha' already exists")
}

func TestProvisionOneDryRunWritesNothing(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir)

	res, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A",
	}, true)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.GreaterOrEqual(t, res.TeamID, idLower)
	assert.Equal(t, UsernameForID(res.TeamID), res.Username)
	assert.Len(t, res.Password, defaultPasswordLength)

	assert.Empty(t, dir.createdOrgs)
	assert.Empty(t, dir.createdTeams)
	assert.Empty(t, dir.createdUsers)
}

func TestProvisionOneSuffixesRequestedUsername(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["T5"] = 40001
	dir.users["T51"] = 40002
	svc := newTestService(dir)

	res, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A", Username: "T5",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "T52", res.Username)
}

func TestProvisionOneKeepsProvidedCredentials(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir)

	res, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A", Username: "alpha", Password: "opensesame",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "alpha", res.Username)
	assert.Equal(t, "opensesame", res.Password)
}

func TestProvisionOneReportsServerIdentifier(t *testing.T) {
	dir := newFakeDirectory()
	dir.reassignID = "20000"
	svc := newTestService(dir)

	res, err := svc.ProvisionOne(context.Background(), &models.ProvisioningRequest{
		Team: "Team Alpha", Organization: "Uni A",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 20000, res.TeamID)
	assert.Equal(t, 20000, res.UserID)
}

func TestProvisionManyEmptyInput(t *testing.T) {
	svc := newTestService(newFakeDirectory())

	report := svc.ProvisionMany(context.Background(), nil, false)
	assert.Equal(t, models.BulkReport{
		Results:      []models.Result{},
		CreatedUsers: []models.CreatedUser{},
	}, report)
}

func TestProvisionManySkipsExistingTeams(t *testing.T) {
	dir := newFakeDirectory()
	dir.teams["Team Beta"] = 10002
	svc := newTestService(dir)

	reqs := []models.ProvisioningRequest{
		{Team: "Team Alpha", Organization: "Uni A"},
		{Team: "Team Beta", Organization: "Uni B"},
		{Team: "Team Gamma", Organization: "Uni A"},
	}
	report := svc.ProvisionMany(context.Background(), reqs, false)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, report.Results, 2, "skipped items are elided from results")
	assert.Len(t, report.CreatedUsers, 2)
	assert.Equal(t, report.Total, report.Created+report.Failed+report.Skipped)

	// Uni A appears twice but is created once per batch; Uni B belonged to
	// the skipped item and is never touched.
	assert.Equal(t, []string{"Uni A"}, dir.createdOrgs)
}

func TestProvisionManyIsolatesItemFailures(t *testing.T) {
	dir := newFakeDirectory()
	dir.failTeamNamed = "Team Beta"
	svc := newTestService(dir)

	reqs := []models.ProvisioningRequest{
		{Team: "Team Alpha", Organization: "Uni A"},
		{Team: "Team Beta", Organization: "Uni B"},
		{Team: "Team Gamma", Organization: "Uni C"},
	}
	report := svc.ProvisionMany(context.Background(), reqs, false)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Contains(t, report.Results[1].Error, "Team Beta")
	assert.True(t, report.Results[2].Success, "failure must not abort the batch")
	assert.Len(t, report.CreatedUsers, 2)
}

func TestProvisionManyInvalidItemFailsInPlace(t *testing.T) {
	svc := newTestService(newFakeDirectory())

	reqs := []models.ProvisioningRequest{
		{Team: "Team Alpha", Organization: "Uni A"},
		{Team: "", Organization: "Uni B"},
	}
	report := svc.ProvisionMany(context.Background(), reqs, false)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, ErrValidation.Error(), report.Results[1].Error)
}

func TestProvisionManySnapshotFailureAbortsBatch(t *testing.T) {
	dir := newFakeDirectory()
	dir.listErr = errors.New("contest server unreachable")
	svc := newTestService(dir)

	reqs := []models.ProvisioningRequest{
		{Team: "Team Alpha", Organization: "Uni A"},
		{Team: "Team Beta", Organization: "Uni B"},
	}
	report := svc.ProvisionMany(context.Background(), reqs, false)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.CreatedUsers)
}

func TestProvisionManyDryRunRecordsCreatedUsers(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir)

	reqs := []models.ProvisioningRequest{
		{Team: "Team Alpha", Organization: "Uni A", Names: "Alice, Bob", Phone: "555-0100"},
	}
	report := svc.ProvisionMany(context.Background(), reqs, true)

	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Results, 1)
	assert.NotEmpty(t, report.Results[0].Message)
	require.Len(t, report.CreatedUsers, 1)
	cu := report.CreatedUsers[0]
	assert.Equal(t, "Team Alpha", cu.Team)
	assert.Equal(t, report.Results[0].UserID, cu.ID)
	assert.Equal(t, report.Results[0].Username, cu.Username)
	assert.Equal(t, "Alice, Bob", cu.Names)
	assert.Equal(t, "555-0100", cu.Phone)

	assert.Empty(t, dir.createdTeams, "dry run must not write")
	assert.Empty(t, dir.createdUsers)
}

func TestProvisionManyUniqueIdentifiersAcrossBatch(t *testing.T) {
	svc := newTestService(newFakeDirectory())

	reqs := make([]models.ProvisioningRequest, 25)
	for i := range reqs {
		reqs[i] = models.ProvisioningRequest{Team: "Team " + strconv.Itoa(i), Organization: "Uni A"}
	}
	report := svc.ProvisionMany(context.Background(), reqs, true)

	require.Equal(t, 25, report.Created)
	ids := make(map[int]bool)
	names := make(map[string]bool)
	for _, res := range report.Results {
		assert.False(t, ids[res.TeamID], "duplicate id %d", res.TeamID)
		ids[res.TeamID] = true
		assert.False(t, names[res.Username], "duplicate username %s", res.Username)
		names[res.Username] = true
	}
}

func TestTeamDescription(t *testing.T) {
	assert.Empty(t, teamDescription("", ""))
	assert.Equal(t, "Alice, Bob | 555-0100", teamDescription("Alice, Bob", "555-0100"))
	assert.Equal(t, "Alice, Bob |", teamDescription("Alice, Bob", ""))
	assert.Equal(t, "| 555-0100", teamDescription("", "555-0100"))
}
