package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler manages citizen complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ComplaintCreateInput{
		Description: req.Description,
		Cause:       req.Cause,
		Impact:      req.Impact,
		Location:    req.Location,
		ProofImage:  req.ProofImage,
	}
	complaint, err := h.service.Submit(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("user required")
	}
	page, pageSize := parsePagination(c)
	result, err := h.service.List(c.UserContext(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pagedResponse(result)})
}

// ListMine GET /complaints/user.
func (h *ComplaintsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	page, pageSize := parsePagination(c)
	result, err := h.service.ListByOwner(c.UserContext(), principal.User.ID, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pagedResponse(result)})
}

// GetOne GET /complaints/:id.
func (h *ComplaintsHandler) GetOne(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	complaint, err := h.service.GetForOwner(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// Delete DELETE /complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "complaint deleted"})
}

func parsePagination(c *fiber.Ctx) (int, int) {
	page := parseInt(c.Query("page"), 0)
	pageSize := parseInt(c.Query("page_size"), 0)
	return page, pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintResponse(complaint *domain.Complaint) dto.ComplaintResponse {
	return dto.ComplaintResponse{
		ID:               complaint.ID,
		OwnerID:          complaint.OwnerID,
		Description:      complaint.Description,
		Cause:            complaint.Cause,
		Impact:           complaint.Impact,
		Location:         complaint.Location,
		ProofImageURL:    complaint.ProofImageURL,
		Status:           complaint.Status,
		ClassifiedIntent: complaint.ClassifiedIntent,
		DepartmentEmail:  complaint.DepartmentEmail,
		DepartmentName:   complaint.DepartmentName,
		CreatedAt:        complaint.CreatedAt,
		UpdatedAt:        complaint.UpdatedAt,
	}
}

func pagedResponse(page *service.ComplaintPage) dto.PagedComplaintsResponse {
	items := make([]dto.ComplaintResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, complaintResponse(&page.Items[i]))
	}
	return dto.PagedComplaintsResponse{
		Complaints: items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
}
