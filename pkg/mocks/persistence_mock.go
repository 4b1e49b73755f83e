package mocks

import (
	"context"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func (m *MockPersistence) SavePost(ctx context.Context, userID string, post *models.Post) (string, error) {
	args := m.Called(ctx, userID, post)

	return args.String(0), args.Error(1)
}

func (m *MockPersistence) TotalPosts(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersistence) RecentPosts(ctx context.Context, userID string, limit int) ([]*models.Post, error) {
	args := m.Called(ctx, userID, limit)

	return postsArg(args, 0), args.Error(1)
}

func (m *MockPersistence) PostsByPlatform(ctx context.Context, userID, platform string) ([]*models.Post, error) {
	args := m.Called(ctx, userID, platform)

	return postsArg(args, 0), args.Error(1)
}

func (m *MockPersistence) PostStats(ctx context.Context, userID string) (*models.PostStats, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.PostStats), args.Error(1)
}

func (m *MockPersistence) SaveCredentials(ctx context.Context, userID string, creds models.Credentials) error {
	args := m.Called(ctx, userID, creds)

	return args.Error(0)
}

func (m *MockPersistence) Credentials(ctx context.Context, userID string) (*models.Credentials, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Credentials), args.Error(1)
}

func (m *MockPersistence) JobSummary(ctx context.Context, userID string) (*models.JobSummary, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.JobSummary), args.Error(1)
}

func (m *MockPersistence) IncrementJobSummary(ctx context.Context, userID string, field models.SummaryField) error {
	args := m.Called(ctx, userID, field)

	return args.Error(0)
}

func (m *MockPersistence) SaveRun(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockPersistence) Runs(ctx context.Context, userID string, limit int) ([]*models.Run, error) {
	args := m.Called(ctx, userID, limit)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Run), args.Error(1)
}

func (m *MockPersistence) Users(ctx context.Context) ([]*models.UserSummary, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.UserSummary), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func postsArg(args mock.Arguments, index int) []*models.Post {
	if args.Get(index) == nil {
		return nil
	}

	return args.Get(index).([]*models.Post)
}
