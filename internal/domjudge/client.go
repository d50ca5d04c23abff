// Package domjudge talks to the DOMjudge admin REST API (v4). The
// provisioning service only consumes the Directory interface; Client is the
// concrete binding with basic auth against a real contest server.
package domjudge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bircpc/domjudge-automation/config"
	"github.com/bircpc/domjudge-automation/internal/models"
)

// Directory is read/write access to the contest server's organizations,
// teams and users. List operations return name-to-identifier snapshots used
// to seed exclusion sets; create operations echo back the authoritative
// entity as the server stored it.
type Directory interface {
	ListOrganizations(ctx context.Context) (map[string]string, error)
	ListTeams(ctx context.Context) (map[string]int, error)
	ListUsers(ctx context.Context) (map[string]int, error)

	// CreateOrGetOrganization returns the organization named name, creating
	// it on the contest server if it is absent from existing. On creation it
	// records the new id in existing so later calls within the same batch
	// reuse it.
	CreateOrGetOrganization(ctx context.Context, name string, existing map[string]string) (*models.Organization, error)
	CreateTeam(ctx context.Context, team *models.Team) (*models.Team, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

// Client implements Directory over the DOMjudge v4 HTTP API.
type Client struct {
	baseURL    string
	username   string
	password   string
	contestID  string
	orgCountry string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a DOMjudge API client. Country is assigned to
// affiliations this client creates.
func NewClient(cfg config.DOMjudgeConfig, country string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.APIBase,
		username:   cfg.Username,
		password:   cfg.Password,
		contestID:  cfg.ContestID,
		orgCountry: country,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		logger:     logger,
	}
}

// wire shapes returned by the DOMjudge list endpoints.
type organizationEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Shortname  string `json:"shortname"`
	FormalName string `json:"formal_name"`
}

type teamEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListOrganizations returns a mapping from organization name to identifier
// for the configured contest.
func (c *Client) ListOrganizations(ctx context.Context) (map[string]string, error) {
	var entries []organizationEntry
	path := fmt.Sprintf("/api/v4/contests/%s/organizations", c.contestID)
	if err := c.get(ctx, path, &entries); err != nil {
		return nil, err
	}
	orgs := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.Shortname
		}
		if name == "" {
			continue
		}
		orgs[name] = e.ID
	}
	return orgs, nil
}

// ListTeams returns a mapping from team name to numeric identifier for the
// configured contest. Teams with a non-numeric id keep their name in the map
// (with id 0) so duplicate detection still sees them.
func (c *Client) ListTeams(ctx context.Context) (map[string]int, error) {
	var entries []teamEntry
	path := fmt.Sprintf("/api/v4/contests/%s/teams", c.contestID)
	if err := c.get(ctx, path, &entries); err != nil {
		return nil, err
	}
	teams := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		id, err := strconv.Atoi(e.ID)
		if err != nil {
			c.logger.Warn("team with non-numeric id", zap.String("team", e.Name), zap.String("id", e.ID))
			id = 0
		}
		teams[e.Name] = id
	}
	return teams, nil
}

// ListUsers returns a mapping from username to numeric identifier.
func (c *Client) ListUsers(ctx context.Context) (map[string]int, error) {
	var entries []userEntry
	if err := c.get(ctx, "/api/v4/users", &entries); err != nil {
		return nil, err
	}
	users := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Username == "" {
			continue
		}
		id, err := strconv.Atoi(e.ID)
		if err != nil {
			c.logger.Warn("user with non-numeric id", zap.String("username", e.Username), zap.String("id", e.ID))
			id = 0
		}
		users[e.Username] = id
	}
	return users, nil
}

// CreateOrGetOrganization looks the organization up by name in existing and
// creates the affiliation on the contest server when absent. The requested
// name doubles as identifier key, shortname and formal name.
func (c *Client) CreateOrGetOrganization(ctx context.Context, name string, existing map[string]string) (*models.Organization, error) {
	if id, ok := existing[name]; ok {
		return &models.Organization{ID: id, Name: name}, nil
	}

	payload := &models.Organization{
		ID:         name,
		Shortname:  name,
		Name:       name,
		FormalName: name,
		Country:    c.orgCountry,
	}
	var created models.Organization
	path := fmt.Sprintf("/api/v4/contests/%s/organizations", c.contestID)
	if err := c.post(ctx, path, payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		created.ID = name
	}
	existing[name] = created.ID
	c.logger.Info("organization created", zap.String("name", name), zap.String("id", created.ID))
	return &created, nil
}

// CreateTeam registers a team and returns it with the identifier the server
// reports, which may differ from the requested one.
func (c *Client) CreateTeam(ctx context.Context, team *models.Team) (*models.Team, error) {
	var created models.Team
	path := fmt.Sprintf("/api/v4/contests/%s/teams", c.contestID)
	if err := c.post(ctx, path, team, &created); err != nil {
		return nil, err
	}
	c.logger.Info("team created", zap.String("name", created.Name), zap.String("id", created.ID))
	return &created, nil
}

// CreateUser registers a login account and returns it with the identifier
// the server reports.
func (c *Client) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var created models.User
	if err := c.post(ctx, "/api/v4/users", user, &created); err != nil {
		return nil, err
	}
	c.logger.Info("user created", zap.String("username", created.Username), zap.String("id", created.ID))
	return &created, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("domjudge: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("domjudge: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("domjudge: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("domjudge: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("domjudge: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("domjudge: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
