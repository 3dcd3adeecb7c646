package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/team-insights/internal/dashboard"
	"github.com/Kamar-Folarin/team-insights/internal/errors"
	"github.com/Kamar-Folarin/team-insights/internal/github"
	"github.com/Kamar-Folarin/team-insights/internal/models"
	"github.com/Kamar-Folarin/team-insights/internal/utils"
	"github.com/Kamar-Folarin/team-insights/internal/views"
)

// Dashboard is the read and project-edit surface the API serves.
type Dashboard interface {
	MemberDetailedStats() []models.MemberDetailedStats
	Member(login string) (*models.MemberDetailedStats, error)
	OverallStats() *models.OverallStats
	RepositoryStats() []models.RepositoryStats
	RepositoryTimeline(name string) (*models.RepositoryTimeline, error)
	Project(number int) (*models.ProjectStats, error)
	ProjectTimeline(number int) (*models.ProjectTimeline, error)
	ProjectsByNumber(numbers []int) ([]models.Project, error)
	IssuesPage(q dashboard.IssueQuery) (views.Page[models.IssueView], error)
	PullRequestsPage(q dashboard.PullRequestQuery) (views.Page[models.PullRequest], error)
	ProjectsPage(q dashboard.ProjectQuery) (views.Page[models.ProjectStats], error)
	UpsertProject(ctx context.Context, project models.Project) error
	RemoveProject(ctx context.Context, number int) error
}

// Handler serves the HTTP API.
type Handler struct {
	dashboard   Dashboard
	syncService github.SyncService
	logger      *logrus.Logger
}

// NewHandler creates a handler.
func NewHandler(d Dashboard, syncService github.SyncService, logger *logrus.Logger) *Handler {
	return &Handler{
		dashboard:   d,
		syncService: syncService,
		logger:      logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMembers returns detailed statistics for every member.
func (h *Handler) ListMembers(c *gin.Context) {
	respondWithJSON(c, http.StatusOK, h.dashboard.MemberDetailedStats())
}

// GetMember returns one member's statistics.
func (h *Handler) GetMember(c *gin.Context) {
	member, err := h.dashboard.Member(c.Param("login"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, member)
}

// GetOverallStats returns team wide statistics.
func (h *Handler) GetOverallStats(c *gin.Context) {
	overall := h.dashboard.OverallStats()
	if overall == nil {
		h.respondWithError(c, errors.NewNotFoundError("no snapshot has been loaded yet", nil))
		return
	}
	respondWithJSON(c, http.StatusOK, overall)
}

// ListRepositories returns statistics for every repository.
func (h *Handler) ListRepositories(c *gin.Context) {
	respondWithJSON(c, http.StatusOK, h.dashboard.RepositoryStats())
}

// GetRepositoryTimeline returns one repository's timeline.
func (h *Handler) GetRepositoryTimeline(c *gin.Context) {
	rt, err := h.dashboard.RepositoryTimeline(c.Param("name"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, rt)
}

// ListProjects returns a filtered, sorted page of projects.
func (h *Handler) ListProjects(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	q := dashboard.ProjectQuery{
		Filter: views.ProjectFilter{Search: c.Query("q")},
		Sort:   views.SortKey(c.Query("sort")),
		Page:   page, PageSize: size,
	}
	for _, state := range listParam(c, "state") {
		q.Filter.States = append(q.Filter.States, models.ProjectState(state))
	}

	result, err := h.dashboard.ProjectsPage(q)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, result)
}

// GetProject returns one project's statistics.
func (h *Handler) GetProject(c *gin.Context) {
	number, err := numberParam(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	project, err := h.dashboard.Project(number)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, project)
}

// GetProjectTimeline returns one project's timeline.
func (h *Handler) GetProjectTimeline(c *gin.Context) {
	number, err := numberParam(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	pt, err := h.dashboard.ProjectTimeline(number)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, pt)
}

// ProjectRequest is the body of a project upsert.
type ProjectRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Items       []models.ProjectItem `json:"items"`
}

// PutProject creates or replaces a project definition.
func (h *Handler) PutProject(c *gin.Context) {
	number, err := numberParam(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, errors.NewValidationError("invalid request body", err))
		return
	}

	project := models.Project{
		Number:      number,
		Title:       req.Title,
		Description: req.Description,
		Items:       req.Items,
	}
	if err := h.dashboard.UpsertProject(c.Request.Context(), project); err != nil {
		h.respondWithError(c, err)
		return
	}

	stats, err := h.dashboard.Project(number)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, stats)
}

// DeleteProject removes a project definition.
func (h *Handler) DeleteProject(c *gin.Context) {
	number, err := numberParam(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if err := h.dashboard.RemoveProject(c.Request.Context(), number); err != nil {
		h.respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIssues returns a filtered, sorted page of issues.
func (h *Handler) ListIssues(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	created, err := dateRange(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	filter := views.IssueFilter{
		Search:       c.Query("q"),
		Repositories: listParam(c, "repo"),
		Assignees:    listParam(c, "assignee"),
		Created:      created,
	}
	for _, status := range listParam(c, "status") {
		filter.Statuses = append(filter.Statuses, models.IssueStatus(status))
	}
	if raw := listParam(c, "project"); len(raw) > 0 {
		numbers := make([]int, 0, len(raw))
		for _, r := range raw {
			n, err := strconv.Atoi(r)
			if err != nil {
				h.respondWithError(c, errors.NewValidationError(fmt.Sprintf("invalid project number: %s", r), err))
				return
			}
			numbers = append(numbers, n)
		}
		projects, err := h.dashboard.ProjectsByNumber(numbers)
		if err != nil {
			if errors.IsNotFound(err) {
				err = errors.NewValidationError(publicMessage(err), err)
			}
			h.respondWithError(c, err)
			return
		}
		filter.Projects = projects
	}

	result, err := h.dashboard.IssuesPage(dashboard.IssueQuery{
		Filter:   filter,
		Sort:     views.SortKey(c.Query("sort")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, result)
}

// ListPullRequests returns a filtered, sorted page of pull requests.
func (h *Handler) ListPullRequests(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	created, err := dateRange(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	result, err := h.dashboard.PullRequestsPage(dashboard.PullRequestQuery{
		Filter: views.PullRequestFilter{
			Search:       c.Query("q"),
			Repositories: listParam(c, "repo"),
			Authors:      listParam(c, "author"),
			States:       listParam(c, "state"),
			Created:      created,
		},
		Sort:     views.SortKey(c.Query("sort")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, result)
}

// GetSyncStatus returns the running or most recent sync.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	status, err := h.syncService.GetSyncStatus(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, status)
}

// ListSyncHistory returns recent sync runs.
func (h *Handler) ListSyncHistory(c *gin.Context) {
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	statuses, err := h.syncService.ListSyncStatuses(c.Request.Context(), limit)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusOK, statuses)
}

// TriggerSync starts a background sync.
func (h *Handler) TriggerSync(c *gin.Context) {
	status, err := h.syncService.TriggerSync(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	respondWithJSON(c, http.StatusAccepted, status)
}

func respondWithJSON(c *gin.Context, code int, payload interface{}) {
	c.JSON(code, payload)
}

// respondWithError maps err to an HTTP status and writes {"error": ...}.
// Internal failures are logged and hidden behind a generic message.
func (h *Handler) respondWithError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	message := "internal server error"

	switch errors.TypeOf(err) {
	case errors.ErrNotFound:
		code = http.StatusNotFound
	case errors.ErrInvalidInput:
		code = http.StatusBadRequest
	case errors.ErrConflict:
		code = http.StatusConflict
	case errors.ErrRateLimit:
		code = http.StatusTooManyRequests
	case errors.ErrUnauthorized:
		code = http.StatusUnauthorized
	}

	if code == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("Request failed")
	} else {
		message = publicMessage(err)
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

func publicMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// listParam reads a repeated or comma separated query parameter.
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid %s parameter", name), err)
	}
	return v, nil
}

func pageParams(c *gin.Context) (int, int, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := intQuery(c, "page_size", 0)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func numberParam(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid project number: %s", c.Param("number")), err)
	}
	return n, nil
}

func dateRange(c *gin.Context) (views.DateRange, error) {
	var r views.DateRange
	for _, bound := range []struct {
		name   string
		target **time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := c.Query(bound.name)
		if raw == "" {
			continue
		}
		t, ok := utils.ParseDate(raw)
		if !ok {
			return r, errors.NewValidationError(fmt.Sprintf("invalid %s date: %s", bound.name, raw), nil)
		}
		*bound.target = &t
	}
	return r, nil
}
