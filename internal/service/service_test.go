package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/threatforge/detection-platform/internal/cache"
	"github.com/threatforge/detection-platform/internal/models"
	"github.com/threatforge/detection-platform/internal/repository"
	"github.com/threatforge/detection-platform/internal/validation"
)

// MockRepository is a mock implementation of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateDetection(ctx context.Context, d *models.Detection, initial *models.DetectionVersion) error {
	args := m.Called(ctx, d, initial)
	return args.Error(0)
}

func (m *MockRepository) GetDetection(ctx context.Context, id string) (*models.Detection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Detection), args.Error(1)
}

func (m *MockRepository) ListDetections(ctx context.Context, opts repository.ListOptions) ([]*models.Detection, string, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]*models.Detection), args.String(1), args.Error(2)
}

func (m *MockRepository) ListVersions(ctx context.Context, detectionID string) ([]*models.DetectionVersion, error) {
	args := m.Called(ctx, detectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DetectionVersion), args.Error(1)
}

func (m *MockRepository) InsertValidationResult(ctx context.Context, result *models.ValidationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockRepository) Close() {
	m.Called()
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) DetectionCreated(ctx context.Context, d *models.Detection) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

const cleanSIEMContent = `index=main sourcetype=auth earliest=-24h action=failure | stats count by user`

func createRequest() *models.CreateDetectionRequest {
	return &models.CreateDetectionRequest{
		Name:        "Failed Login Burst",
		Description: "Flags accounts with repeated authentication failures",
		Content:     cleanSIEMContent,
		Platform:    "SIEM",
		Tags:        []string{"auth", "brute-force"},
		OwnerID:     "user-1",
		OrgID:       "org-1",
	}
}

func newTestService(repo repository.Repository, publisher EventPublisher, minScore float64) *Service {
	validator := validation.NewValidator(validation.NewRegistry(), cache.NewMemory())
	return New(repo, validator, publisher, nil, minScore, 10*time.Second)
}

// expectCreate arranges for CreateDetection to succeed and for the read-back
// to return the detection that was persisted.
func expectCreate(repo *MockRepository) {
	repo.On("CreateDetection", mock.Anything, mock.AnythingOfType("*models.Detection"), mock.AnythingOfType("*models.DetectionVersion")).
		Run(func(args mock.Arguments) {
			d := args.Get(1).(*models.Detection)
			repo.On("GetDetection", mock.Anything, d.ID).Return(d, nil)
		}).Return(nil)
}

func TestCreateDetectionSuccess(t *testing.T) {
	repo := new(MockRepository)
	expectCreate(repo)
	repo.On("InsertValidationResult", mock.Anything, mock.AnythingOfType("*models.ValidationResult")).Return(nil)

	svc := newTestService(repo, nil, 95)
	d, result, err := svc.CreateDetection(context.Background(), createRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "1.0.0", d.Version)
	assert.Equal(t, "user-1", d.OwnerID)
	require.NotNil(t, d.OrgID)
	assert.Equal(t, "org-1", *d.OrgID)
	assert.Equal(t, 100.0, d.QualityScore)
	assert.Empty(t, result.Issues)
	assert.Equal(t, d.ID, result.DetectionID)
	assert.False(t, d.CreatedAt.IsZero())

	repo.AssertExpectations(t)

	// The initial version snapshot carries the submitted content and the
	// detection's owner as author.
	initial := repo.Calls[0].Arguments.Get(2).(*models.DetectionVersion)
	assert.Equal(t, d.ID, initial.DetectionID)
	assert.Equal(t, d.Content, initial.Content)
	assert.Equal(t, "user-1", initial.AuthorID)
	assert.NotEmpty(t, initial.ID)
}

func TestCreateDetectionBelowThreshold(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil, 95)

	req := createRequest()
	// index=* fires an error rule: score 50, below the 95 gate.
	req.Content = "index=* earliest=-1h failed login"

	d, result, err := svc.CreateDetection(context.Background(), req)
	assert.Nil(t, d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQualityBelowThreshold)

	var qerr *QualityThresholdError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, 50.0, qerr.Score)
	assert.Equal(t, 95.0, qerr.Threshold)
	require.NotNil(t, qerr.Result)
	assert.NotEmpty(t, qerr.Result.Issues)
	assert.Equal(t, qerr.Result, result)

	// Nothing was persisted.
	repo.AssertNotCalled(t, "CreateDetection", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "InsertValidationResult", mock.Anything, mock.Anything)
}

func TestCreateDetectionGateBoundary(t *testing.T) {
	// A single info issue scores 95; the gate rejects strictly below the
	// threshold, so exactly 95 passes.
	repo := new(MockRepository)
	expectCreate(repo)
	repo.On("InsertValidationResult", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, nil, 95)
	req := createRequest()
	req.Metadata = map[string]string{"experimental": "true"}

	d, result, err := svc.CreateDetection(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 95.0, d.QualityScore, 1e-9)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "EXPERIMENTAL", result.Issues[0].Code)
}

func TestCreateDetectionInvalidInput(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil, 95)

	tests := []struct {
		name   string
		mutate func(*models.CreateDetectionRequest)
	}{
		{"missing name", func(r *models.CreateDetectionRequest) { r.Name = "" }},
		{"missing description", func(r *models.CreateDetectionRequest) { r.Description = "" }},
		{"missing content", func(r *models.CreateDetectionRequest) { r.Content = "  " }},
		{"missing owner", func(r *models.CreateDetectionRequest) { r.OwnerID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			tt.mutate(req)
			_, _, err := svc.CreateDetection(context.Background(), req)
			assert.ErrorIs(t, err, validation.ErrInvalidInput)
		})
	}
	repo.AssertNotCalled(t, "CreateDetection", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateDetectionInvalidPlatform(t *testing.T) {
	svc := newTestService(new(MockRepository), nil, 95)
	req := createRequest()
	req.Platform = "XDR"

	_, _, err := svc.CreateDetection(context.Background(), req)
	assert.ErrorIs(t, err, validation.ErrInvalidPlatform)
}

func TestCreateDetectionRepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateDetection", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := newTestService(repo, nil, 95)
	_, _, err := svc.CreateDetection(context.Background(), createRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQualityBelowThreshold)
}

func TestCreateDetectionHistoryFailureIsNotFatal(t *testing.T) {
	repo := new(MockRepository)
	expectCreate(repo)
	repo.On("InsertValidationResult", mock.Anything, mock.Anything).Return(errors.New("history table unavailable"))

	svc := newTestService(repo, nil, 95)
	d, _, err := svc.CreateDetection(context.Background(), createRequest())
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestCreateDetectionPublishesEvent(t *testing.T) {
	repo := new(MockRepository)
	expectCreate(repo)
	repo.On("InsertValidationResult", mock.Anything, mock.Anything).Return(nil)

	pub := new(mockPublisher)
	pub.On("DetectionCreated", mock.Anything, mock.AnythingOfType("*models.Detection")).Return(nil)

	svc := newTestService(repo, pub, 95)
	d, _, err := svc.CreateDetection(context.Background(), createRequest())
	require.NoError(t, err)

	pub.AssertCalled(t, "DetectionCreated", mock.Anything, d)
}

func TestCreateDetectionPublishFailureIsNotFatal(t *testing.T) {
	repo := new(MockRepository)
	expectCreate(repo)
	repo.On("InsertValidationResult", mock.Anything, mock.Anything).Return(nil)

	pub := new(mockPublisher)
	pub.On("DetectionCreated", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	svc := newTestService(repo, pub, 95)
	_, _, err := svc.CreateDetection(context.Background(), createRequest())
	assert.NoError(t, err)
}

func TestValidateContentDoesNotPersist(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil, 95)

	result, err := svc.ValidateContent(context.Background(), &models.ValidateContentRequest{
		Content:  "index=* earliest=-1h",
		Platform: "SIEM",
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.QualityScore)
	assert.Empty(t, result.DetectionID)

	repo.AssertNotCalled(t, "CreateDetection", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "InsertValidationResult", mock.Anything, mock.Anything)
}

func TestGetDetection(t *testing.T) {
	repo := new(MockRepository)
	want := &models.Detection{ID: "d1", Name: "Test"}
	repo.On("GetDetection", mock.Anything, "d1").Return(want, nil)

	svc := newTestService(repo, nil, 95)
	got, err := svc.GetDetection(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetDetectionNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetDetection", mock.Anything, "missing").Return(nil, repository.ErrDetectionNotFound)

	svc := newTestService(repo, nil, 95)
	_, err := svc.GetDetection(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrDetectionNotFound)
}

func TestGetDetectionEmptyID(t *testing.T) {
	svc := newTestService(new(MockRepository), nil, 95)
	_, err := svc.GetDetection(context.Background(), "  ")
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
}

func TestListDetectionsEmptyPageIsNotNil(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListDetections", mock.Anything, mock.Anything).Return(nil, "", nil)

	svc := newTestService(repo, nil, 95)
	resp, err := svc.ListDetections(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Detections)
	assert.Empty(t, resp.Detections)
	assert.Empty(t, resp.NextCursor)
}

func TestGetVersionHistory(t *testing.T) {
	repo := new(MockRepository)
	versions := []*models.DetectionVersion{
		{ID: "v2", DetectionID: "d1"},
		{ID: "v1", DetectionID: "d1"},
	}
	repo.On("ListVersions", mock.Anything, "d1").Return(versions, nil)

	svc := newTestService(repo, nil, 95)
	resp, err := svc.GetVersionHistory(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", resp.DetectionID)
	assert.Equal(t, versions, resp.Versions)
}
