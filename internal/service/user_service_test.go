package service

import (
	"context"
	"testing"

	"fieldexpense/internal/model"
	"fieldexpense/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserService(repo, &fakeAuditRepo{}, fakeTxManager{}, "test-secret"), repo
}

func TestCreateUserAndLogin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	adminID := uuid.New()

	created, err := svc.CreateUser(ctx, adminID, CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "hunter22",
		Role:     model.RoleEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, created.Role)

	token, err := svc.Login(ctx, LoginUserRequest{Email: "jdoe@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)

	_, err = svc.Login(ctx, LoginUserRequest{Email: "jdoe@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	adminID := uuid.New()

	req := CreateUserRequest{Username: "jdoe", Email: "jdoe@example.com", Password: "hunter22", Role: model.RoleEmployee}
	_, err := svc.CreateUser(ctx, adminID, req)
	require.NoError(t, err)

	req.Username = "jdoe2"
	_, err = svc.CreateUser(ctx, adminID, req)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestCreateUserSupervisorMustHaveSupervisorRole(t *testing.T) {
	svc, repo := newUserService()
	ctx := context.Background()
	adminID := uuid.New()

	notASupervisor := &model.User{ID: uuid.New(), Username: "fin", Email: "fin@example.com", Role: model.RoleFinance}
	require.NoError(t, repo.Create(ctx, notASupervisor))

	_, err := svc.CreateUser(ctx, adminID, CreateUserRequest{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		Password:     "hunter22",
		Role:         model.RoleEmployee,
		SupervisorID: notASupervisor.ID.String(),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestAssignSupervisor(t *testing.T) {
	svc, repo := newUserService()
	ctx := context.Background()

	supervisor := &model.User{ID: uuid.New(), Username: "sup", Email: "sup@example.com", Role: model.RoleSupervisor}
	employee := &model.User{ID: uuid.New(), Username: "emp", Email: "emp@example.com", Role: model.RoleEmployee}
	require.NoError(t, repo.Create(ctx, supervisor))
	require.NoError(t, repo.Create(ctx, employee))

	updated, err := svc.AssignSupervisor(ctx, employee.ID, supervisor.ID)
	require.NoError(t, err)
	assert.Equal(t, supervisor.ID.String(), updated.SupervisorID)

	_, err = svc.AssignSupervisor(ctx, employee.ID, employee.ID)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
