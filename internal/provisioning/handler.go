package provisioning

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bircpc/domjudge-automation/internal/domjudge"
	"github.com/bircpc/domjudge-automation/internal/models"
	"github.com/bircpc/domjudge-automation/pkg/response"
)

// Handler handles team provisioning HTTP endpoints.
type Handler struct {
	svc    *Service
	dir    domjudge.Directory
	logger *zap.Logger
}

// NewHandler creates a provisioning handler.
func NewHandler(svc *Service, dir domjudge.Directory, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, dir: dir, logger: logger}
}

// BulkRequest is the body for POST /teams/bulk.
type BulkRequest struct {
	Teams  []models.ProvisioningRequest `json:"teams"`
	DryRun bool                         `json:"dryRun"`
}

// CreateTeam handles POST /teams?dryRun={bool}. 201 on success, 400 on
// validation failure, 409 if the team name exists, 500 on contest server
// failure.
func (h *Handler) CreateTeam(c *gin.Context) {
	dryRun := c.Query("dryRun") == "true"

	var req models.ProvisioningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	res, err := h.svc.ProvisionOne(c.Request.Context(), &req, dryRun)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrTeamExists):
			response.Conflict(c, err.Error())
		default:
			h.logger.Error("create team", zap.String("team", req.Team), zap.Error(err))
			response.Internal(c, err.Error())
		}
		return
	}
	if dryRun {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CreateTeamsBulk handles POST /teams/bulk. Responds 201 with a BulkReport
// even when individual items failed; 400 with an all-zero report when the
// teams array is missing or empty.
func (h *Handler) CreateTeamsBulk(c *gin.Context) {
	var body BulkRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Teams) == 0 {
		c.JSON(http.StatusBadRequest, models.BulkReport{
			Results:      []models.Result{},
			CreatedUsers: []models.CreatedUser{},
		})
		return
	}

	report := h.svc.ProvisionMany(c.Request.Context(), body.Teams, body.DryRun)
	c.JSON(http.StatusCreated, report)
}

// ListTeams handles GET /teams.
func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.dir.ListTeams(c.Request.Context())
	if err != nil {
		h.logger.Error("list teams", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	out := make([]models.TeamSummary, 0, len(teams))
	for name, id := range teams {
		out = append(out, models.TeamSummary{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, out)
}

// ListOrganizations handles GET /organizations.
func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.dir.ListOrganizations(c.Request.Context())
	if err != nil {
		h.logger.Error("list organizations", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	out := make([]models.OrganizationSummary, 0, len(orgs))
	for name, id := range orgs {
		out = append(out, models.OrganizationSummary{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, out)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.dir.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, err.Error())
		return
	}
	out := make([]models.UserSummary, 0, len(users))
	for username, id := range users {
		out = append(out, models.UserSummary{Username: username, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	c.JSON(http.StatusOK, out)
}
