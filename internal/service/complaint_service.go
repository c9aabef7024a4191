package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/media"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// ComplaintService coordinates the complaint intake pipeline and the
// read/delete workflows around it.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	media      media.Store
	classifier classifier.Client
	fallback   classifier.FallbackPolicy
	dispatcher notification.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Media         media.Store
	Classifier    classifier.Client
	Fallback      classifier.FallbackPolicy
	Dispatcher    notification.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// ComplaintCreateInput describes one submission payload. ProofImage carries
// the embedded image payload, not a URL.
type ComplaintCreateInput struct {
	Description string
	Cause       string
	Impact      string
	Location    string
	ProofImage  string
}

// ComplaintPage is one page of a complaint listing.
type ComplaintPage struct {
	Items      []domain.Complaint
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		media:      deps.Media,
		classifier: deps.Classifier,
		fallback:   deps.Fallback,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Submit runs the intake pipeline for one complaint: validate, externalize
// the proof image, classify (falling back to the default department),
// compose the notification body under a pre-assigned id, persist, then hand
// the notification to the detached dispatcher. Classification and dispatch
// failures never fail the request; media and store failures always do.
func (s *ComplaintService) Submit(ctx context.Context, submitter *domain.User, input ComplaintCreateInput) (*domain.Complaint, error) {
	description := strings.TrimSpace(input.Description)
	cause := strings.TrimSpace(input.Cause)
	impact := strings.TrimSpace(input.Impact)
	proofImage := strings.TrimSpace(input.ProofImage)

	missing := []string{}
	if description == "" {
		missing = append(missing, "description")
	}
	if cause == "" {
		missing = append(missing, "cause")
	}
	if impact == "" {
		missing = append(missing, "impact")
	}
	if proofImage == "" {
		missing = append(missing, "proofImage")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("description, cause, impact and proofImage are required", map[string]any{"missing": missing})
	}

	imageURL, err := s.media.Upload(ctx, proofImage)
	if err != nil {
		return nil, apperrors.NewUploadError(err)
	}

	routing, err := s.classifier.Classify(ctx, description)
	if err != nil {
		s.logger.Warn("classification unavailable, routing to default department", zap.Error(err))
		routing = s.fallback.Route(description)
	}

	// The id must exist before persistence: the notification body embeds it,
	// and the stored record and the response return the same value.
	complaintID := uuid.NewString()
	submittedAt := time.Now().UTC()

	fields := notification.ComplaintFields{
		Description:   description,
		Cause:         cause,
		Impact:        impact,
		Location:      strings.TrimSpace(input.Location),
		ProofImageURL: imageURL,
	}
	body := notification.ComposeDepartmentEmail(complaintID, submitter, fields, routing, submittedAt)

	complaint := &domain.Complaint{
		ID:               complaintID,
		OwnerID:          submitter.ID,
		Description:      description,
		Cause:            cause,
		Impact:           impact,
		Location:         fields.Location,
		ProofImageURL:    imageURL,
		Status:           domain.ComplaintStatusPending,
		NotificationBody: body,
		ClassifiedIntent: routing.Intent,
		DepartmentEmail:  routing.DepartmentEmail,
		DepartmentName:   routing.DepartmentName,
	}

	if err := s.complaints.Insert(ctx, complaint); err != nil {
		s.cleanupImage(imageURL)
		return nil, apperrors.NewInternalError(err)
	}

	s.dispatchNotification(ctx, complaint)
	return complaint, nil
}

// List returns a newest-first page across all complaints.
func (s *ComplaintService) List(ctx context.Context, page, pageSize int) (*ComplaintPage, error) {
	return s.listPage(ctx, repository.ComplaintFilter{}, page, pageSize)
}

// ListByOwner returns a newest-first page of the owner's complaints.
func (s *ComplaintService) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*ComplaintPage, error) {
	return s.listPage(ctx, repository.ComplaintFilter{OwnerID: &ownerID}, page, pageSize)
}

// GetForOwner fetches a complaint ensuring ownership.
func (s *ComplaintService) GetForOwner(ctx context.Context, requesterID, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("complaint", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.OwnerID != requesterID {
		return nil, apperrors.NewForbidden("not the complaint owner")
	}
	return complaint, nil
}

// Delete removes an owned complaint. The externalized image is cleaned up
// best-effort first; a failed cleanup is logged and never blocks removal of
// the record.
func (s *ComplaintService) Delete(ctx context.Context, requesterID, complaintID string) error {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewNotFound("complaint", nil)
		}
		return apperrors.MapError(err)
	}
	if complaint.OwnerID != requesterID {
		return apperrors.NewForbidden("not the complaint owner")
	}

	if complaint.ProofImageURL != "" {
		if err := s.media.Remove(ctx, complaint.ProofImageURL); err != nil {
			s.logger.Warn("proof image cleanup failed",
				zap.String("complaint_id", complaint.ID),
				zap.Error(err))
		}
	}

	if err := s.complaints.Delete(ctx, complaintID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewNotFound("complaint", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ComplaintService) listPage(ctx context.Context, filter repository.ComplaintFilter, page, pageSize int) (*ComplaintPage, error) {
	if page <= 0 {
		page = defaultPage
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	total, err := s.complaints.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	skip := int64(page-1) * int64(pageSize)
	items, err := s.complaints.ListPage(ctx, filter, int64(pageSize), skip)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &ComplaintPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// dispatchNotification hands the stored body to the queue. The submitter has
// already been (or is about to be) acknowledged; a failed enqueue only
// affects logs.
func (s *ComplaintService) dispatchNotification(ctx context.Context, complaint *domain.Complaint) {
	if s.dispatcher == nil {
		return
	}
	n := notification.Notification{
		ComplaintID: complaint.ID,
		To:          complaint.DepartmentEmail,
		Subject: notification.ComposeSubject(complaint.ID, classifier.Routing{
			DepartmentEmail: complaint.DepartmentEmail,
			DepartmentName:  complaint.DepartmentName,
			Intent:          complaint.ClassifiedIntent,
		}),
		Body: complaint.NotificationBody,
	}
	// Detached from the request lifecycle: caller disconnect must not cancel
	// the enqueue.
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), n); err != nil {
		s.metrics.RecordDispatch("enqueue_failed")
		s.logger.Error("notification dispatch failed",
			zap.String("complaint_id", complaint.ID),
			zap.String("department_email", complaint.DepartmentEmail),
			zap.Error(err))
		return
	}
	s.metrics.RecordDispatch("enqueued")
}

func (s *ComplaintService) cleanupImage(imageURL string) {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.media.Remove(cleanupCtx, imageURL); err != nil {
		s.logger.Warn("orphaned proof image cleanup failed", zap.String("url", imageURL), zap.Error(err))
	}
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
