package blog_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	blog "github.com/goliatone/go-blog"
)

// MockIdentity implements blog.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements blog.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger keeps test output quiet where log assertions are not the point.
type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any) {}
func (noopLogger) Warn(format string, args ...any) {}
func (noopLogger) Error(format string, args ...any) {}

// MockUsers implements blog.Users for testing
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, record *blog.User) (*blog.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*blog.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*blog.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) List(ctx context.Context, pager blog.Pager) ([]blog.User, int, error) {
	args := m.Called(ctx, pager)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]blog.User), args.Int(1), args.Error(2)
}

func (m *MockUsers) Update(ctx context.Context, id uuid.UUID, patch blog.UserPatch) (*blog.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIdentityProvider implements blog.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (blog.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(blog.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (blog.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(blog.Identity), args.Error(1)
}

// testIdentity is a plain value identity for cases where a mock is overkill.
type testIdentity struct {
	id   string
	name string
	mail string
	role string
}

func (t testIdentity) ID() string { return t.id }
func (t testIdentity) Username() string { return t.name }
func (t testIdentity) Email() string { return t.mail }
func (t testIdentity) Role() string { return t.role }
