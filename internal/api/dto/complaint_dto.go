package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload. ProofImage is the embedded image payload
// (base64 or data URI), never a URL.
type CreateComplaintRequest struct {
	Description string `json:"description"`
	Cause       string `json:"cause"`
	Impact      string `json:"impact"`
	Location    string `json:"location"`
	ProofImage  string `json:"proofImage"`
}

// ComplaintResponse is the public shape of a complaint.
type ComplaintResponse struct {
	ID               string                 `json:"id"`
	OwnerID          string                 `json:"owner_id"`
	Description      string                 `json:"description"`
	Cause            string                 `json:"cause"`
	Impact           string                 `json:"impact"`
	Location         string                 `json:"location,omitempty"`
	ProofImageURL    string                 `json:"proof_image_url"`
	Status           domain.ComplaintStatus `json:"status"`
	ClassifiedIntent string                 `json:"classified_intent"`
	DepartmentEmail  string                 `json:"department_email"`
	DepartmentName   string                 `json:"department_name"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// PagedComplaintsResponse wraps one listing page.
type PagedComplaintsResponse struct {
	Complaints []ComplaintResponse `json:"complaints"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Total      int64               `json:"total"`
	TotalPages int                 `json:"total_pages"`
}
