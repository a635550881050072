package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mdfarid01/RapidTrack/internal/api/dto"
	"github.com/mdfarid01/RapidTrack/internal/auth"
	"github.com/mdfarid01/RapidTrack/internal/domain"
	"github.com/mdfarid01/RapidTrack/internal/engine"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

// IssuesHandler manages issue lifecycle endpoints.
type IssuesHandler struct {
	engine *engine.Engine
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(eng *engine.Engine) *IssuesHandler {
	return &IssuesHandler{engine: eng}
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.engine.CreateIssue(c.UserContext(), principal.Actor, engine.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseListFilter(c)
	issues, err := h.engine.ListIssuesForActor(c.UserContext(), principal.Actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, dto.NewIssueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.engine.GetIssue(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	issue, err := h.engine.UpdateStatus(c.UserContext(), principal.Actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// Assign POST /issues/:id/assign.
func (h *IssuesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}

	issue, err := h.engine.Assign(c.UserContext(), principal.Actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// Escalate POST /issues/:id/escalate.
func (h *IssuesHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.engine.Escalate(c.UserContext(), principal.Actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// ReassignDepartment PATCH /issues/:id/department.
func (h *IssuesHandler) ReassignDepartment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReassignDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Department == "" {
		return apperrors.NewValidationError("department required", nil)
	}

	issue, err := h.engine.ReassignDepartment(c.UserContext(), principal.Actor, c.Params("id"), req.Department)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueDetail(issue)})
}

// AddComment POST /issues/:id/comments.
func (h *IssuesHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, comment, err := h.engine.AddComment(c.UserContext(), principal.Actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"comment": dto.CommentResponse{
				ID:         comment.ID,
				AuthorID:   comment.AuthorID,
				AuthorName: comment.AuthorName,
				Body:       comment.Body,
				CreatedAt:  comment.CreatedAt,
			},
			"issue": dto.NewIssueSummary(issue),
		},
	})
}

// ListActivities GET /issues/:id/activities.
func (h *IssuesHandler) ListActivities(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.engine.ListActivitiesForIssue(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecentActivities GET /activities/recent.
func (h *IssuesHandler) RecentActivities(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	entries, err := h.engine.ListRecentActivities(c.UserContext(), principal.Actor, limit)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseListFilter(c *fiber.Ctx) engine.ListFilter {
	filter := engine.ListFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				filter.Statuses = append(filter.Statuses, domain.IssueStatus(s))
			}
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				filter.Priorities = append(filter.Priorities, domain.IssuePriority(p))
			}
		}
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}
