package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type fakeComplaintRepo struct {
	complaints map[string]domain.Complaint
	insertErr  error
	inserted   int
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: make(map[string]domain.Complaint)}
}

func (r *fakeComplaintRepo) Insert(_ context.Context, complaint *domain.Complaint) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	now := time.Now().UTC()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	r.complaints[complaint.ID] = *complaint
	r.inserted++
	return nil
}

func (r *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &complaint, nil
}

func (r *fakeComplaintRepo) ListPage(_ context.Context, filter repository.ComplaintFilter, limit, skip int64) ([]domain.Complaint, error) {
	matched := r.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if skip >= int64(len(matched)) {
		return []domain.Complaint{}, nil
	}
	matched = matched[skip:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeComplaintRepo) Count(_ context.Context, filter repository.ComplaintFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *fakeComplaintRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.complaints[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.complaints, id)
	return nil
}

func (r *fakeComplaintRepo) matching(filter repository.ComplaintFilter) []domain.Complaint {
	matched := []domain.Complaint{}
	for _, complaint := range r.complaints {
		if filter.OwnerID != nil && complaint.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, complaint)
	}
	return matched
}

type fakeMediaStore struct {
	uploads   int
	uploadErr error
	removed   []string
	removeErr error
}

func (s *fakeMediaStore) Upload(_ context.Context, _ string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads++
	return fmt.Sprintf("http://cdn.example/complaint-proofs/proof-%d.jpg", s.uploads), nil
}

func (s *fakeMediaStore) Remove(_ context.Context, publicURL string) error {
	s.removed = append(s.removed, publicURL)
	return s.removeErr
}

type fakeClassifier struct {
	routing classifier.Routing
	err     error
	calls   int
}

func (c *fakeClassifier) Classify(_ context.Context, _ string) (classifier.Routing, error) {
	c.calls++
	if c.err != nil {
		return classifier.Routing{}, c.err
	}
	return c.routing, nil
}

type fakeDispatcher struct {
	dispatched []notification.Notification
	err        error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, n notification.Notification) error {
	d.dispatched = append(d.dispatched, n)
	return d.err
}

type fixture struct {
	repo       *fakeComplaintRepo
	media      *fakeMediaStore
	classifier *fakeClassifier
	dispatcher *fakeDispatcher
	service    *service.ComplaintService
}

func newFixture() *fixture {
	f := &fixture{
		repo:  newFakeComplaintRepo(),
		media: &fakeMediaStore{},
		classifier: &fakeClassifier{routing: classifier.Routing{
			DepartmentEmail: "roads@gov",
			DepartmentName:  "Roads Dept",
			Intent:          "ROAD_DAMAGE",
		}},
		dispatcher: &fakeDispatcher{},
	}
	f.service = service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: f.repo,
		Media:         f.media,
		Classifier:    f.classifier,
		Fallback: classifier.FallbackPolicy{
			DepartmentEmail: "grievance.cell@gov.example",
			DepartmentName:  "General Grievance Cell",
		},
		Dispatcher: f.dispatcher,
		Logger:     zap.NewNop(),
	})
	return f
}

func submitter() *domain.User {
	return &domain.User{
		ID:       "user-1",
		Username: "asha",
		Email:    "asha@example.com",
	}
}

func validInput() service.ComplaintCreateInput {
	return service.ComplaintCreateInput{
		Description: "pothole",
		Cause:       "road damage",
		Impact:      "accidents",
		ProofImage:  "aGVsbG8gd29ybGQ=",
	}
}

func TestSubmitPersistsClassifierRouting(t *testing.T) {
	f := newFixture()

	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusPending, complaint.Status)
	assert.Equal(t, "ROAD_DAMAGE", complaint.ClassifiedIntent)
	assert.Equal(t, "roads@gov", complaint.DepartmentEmail)
	assert.Equal(t, "Roads Dept", complaint.DepartmentName)
	assert.NotEmpty(t, complaint.ProofImageURL)
	assert.NotEmpty(t, complaint.NotificationBody)

	stored, err := f.repo.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, complaint.DepartmentEmail, stored.DepartmentEmail)
	assert.Equal(t, complaint.ClassifiedIntent, stored.ClassifiedIntent)
}

func TestSubmitFallsBackWhenClassifierFails(t *testing.T) {
	f := newFixture()
	f.classifier.err = classifier.ErrClassification

	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err, "classification failure must never block complaint creation")

	assert.Equal(t, classifier.IntentUnclassified, complaint.ClassifiedIntent)
	assert.Equal(t, "grievance.cell@gov.example", complaint.DepartmentEmail)
	assert.Equal(t, "General Grievance Cell", complaint.DepartmentName)
	assert.Equal(t, 1, f.repo.inserted)
	require.Len(t, f.dispatcher.dispatched, 1)
	assert.Equal(t, "grievance.cell@gov.example", f.dispatcher.dispatched[0].To)
}

func TestSubmitValidationFailureMakesNoExternalCalls(t *testing.T) {
	cases := map[string]func(*service.ComplaintCreateInput){
		"missing description": func(in *service.ComplaintCreateInput) { in.Description = "  " },
		"missing cause":       func(in *service.ComplaintCreateInput) { in.Cause = "" },
		"missing impact":      func(in *service.ComplaintCreateInput) { in.Impact = "" },
		"missing proof image": func(in *service.ComplaintCreateInput) { in.ProofImage = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			input := validInput()
			mutate(&input)

			_, err := f.service.Submit(context.Background(), submitter(), input)
			require.Error(t, err)

			var domainErr *apperrors.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

			assert.Zero(t, f.media.uploads)
			assert.Zero(t, f.classifier.calls)
			assert.Zero(t, f.repo.inserted)
			assert.Empty(t, f.dispatcher.dispatched)
		})
	}
}

func TestSubmitUploadFailureAbortsRequest(t *testing.T) {
	f := newFixture()
	f.media.uploadErr = errors.New("storage unreachable")

	_, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UPLOAD_FAILED", domainErr.Code)

	assert.Zero(t, f.classifier.calls, "no classification after failed upload")
	assert.Zero(t, f.repo.inserted)
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestSubmitPersistenceFailureCleansUpImage(t *testing.T) {
	f := newFixture()
	f.repo.insertErr = errors.New("write concern failed")

	_, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)

	assert.Len(t, f.media.removed, 1, "orphaned image cleanup attempted")
	assert.Empty(t, f.dispatcher.dispatched)
}

func TestSubmitStoredBodyMatchesDispatchedBody(t *testing.T) {
	f := newFixture()

	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)
	require.Len(t, f.dispatcher.dispatched, 1)

	sent := f.dispatcher.dispatched[0]
	stored, err := f.repo.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)

	assert.Equal(t, stored.NotificationBody, sent.Body, "stored and sent bodies must be byte-identical")
	assert.Equal(t, complaint.ID, sent.ComplaintID)
	assert.Contains(t, sent.Body, complaint.ID, "full id embedded in the body")
	assert.Contains(t, sent.Subject, notification.DisplayID(complaint.ID))
}

func TestSubmitDispatchFailureDoesNotAffectResult(t *testing.T) {
	f := newFixture()
	f.dispatcher.err = errors.New("queue unavailable")

	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	stored, err := f.repo.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, complaint.NotificationBody, stored.NotificationBody)
	assert.Equal(t, domain.ComplaintStatusPending, stored.Status)
}

func TestListByOwnerPagination(t *testing.T) {
	f := newFixture()
	owner := submitter()
	for i := 0; i < 5; i++ {
		input := validInput()
		input.Description = fmt.Sprintf("pothole %d", i)
		_, err := f.service.Submit(context.Background(), owner, input)
		require.NoError(t, err)
	}

	page, err := f.service.ListByOwner(context.Background(), owner.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)

	other, err := f.service.ListByOwner(context.Background(), "someone-else", 1, 2)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, int64(0), other.Total)
	assert.Equal(t, 0, other.TotalPages)
}

func TestListDefaultsPagination(t *testing.T) {
	f := newFixture()
	_, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	page, err := f.service.List(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
}

func TestGetForOwner(t *testing.T) {
	f := newFixture()
	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	got, err := f.service.GetForOwner(context.Background(), "user-1", complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, complaint.ID, got.ID)

	_, err = f.service.GetForOwner(context.Background(), "intruder", complaint.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	_, err = f.service.GetForOwner(context.Background(), "user-1", "missing-id")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDeleteSurvivesImageCleanupFailure(t *testing.T) {
	f := newFixture()
	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	f.media.removeErr = errors.New("object store down")
	err = f.service.Delete(context.Background(), "user-1", complaint.ID)
	require.NoError(t, err, "failed image cleanup must not block record removal")

	_, err = f.repo.GetByID(context.Background(), complaint.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestDeleteByNonOwnerForbidden(t *testing.T) {
	f := newFixture()
	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), "intruder", complaint.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	stored, err := f.repo.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err, "record untouched")
	assert.Equal(t, complaint.ProofImageURL, stored.ProofImageURL)
	assert.NotContains(t, f.media.removed, complaint.ProofImageURL, "image untouched")
}

func TestDeleteMissingComplaintNotFound(t *testing.T) {
	f := newFixture()

	err := f.service.Delete(context.Background(), "user-1", "does-not-exist")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestNotificationBodyRendersMissingLocation(t *testing.T) {
	f := newFixture()

	complaint, err := f.service.Submit(context.Background(), submitter(), validInput())
	require.NoError(t, err)
	assert.True(t, strings.Contains(complaint.NotificationBody, "Not provided"))

	withLocation := validInput()
	withLocation.Location = "MG Road, Ward 12"
	complaint, err = f.service.Submit(context.Background(), submitter(), withLocation)
	require.NoError(t, err)
	assert.Contains(t, complaint.NotificationBody, "MG Road, Ward 12")
	assert.NotContains(t, complaint.NotificationBody, "Not provided")
}
