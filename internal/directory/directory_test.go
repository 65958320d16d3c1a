package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/directory"
)

func TestInMemoryDirectory_EmailOfApplicant(t *testing.T) {
	d := directory.NewInMemoryDirectory([]directory.Account{
		{ID: "u1", Email: "u1@example.com", Roles: []string{"ROLE_APPLICANT"}},
	}, time.Minute)

	email, err := d.EmailOfApplicant(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", email)

	_, err = d.EmailOfApplicant(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInMemoryDirectory_AnyApproverEmail(t *testing.T) {
	d := directory.NewInMemoryDirectory([]directory.Account{
		{ID: "u1", Email: "u1@example.com", Roles: []string{"ROLE_APPLICANT"}},
		{ID: "a1", Email: "a1@example.com", Roles: []string{"ROLE_APPROVER"}},
	}, time.Minute)

	email, err := d.AnyApproverEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1@example.com", email)
}

func TestInMemoryDirectory_AnyApproverEmail_NoneConfigured(t *testing.T) {
	d := directory.NewInMemoryDirectory([]directory.Account{
		{ID: "u1", Email: "u1@example.com", Roles: []string{"ROLE_APPLICANT"}},
	}, time.Minute)

	_, err := d.AnyApproverEmail(context.Background())
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := directory.HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)
}
