package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

func TestCatalogCreateNormalizesCode(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewMemoryStore().ServiceTypes())

	created, err := svc.Create(ctx, " reg ", "Registration")
	require.NoError(t, err)
	assert.Equal(t, "REG", created.Code)

	fetched, err := svc.Get(ctx, "REG")
	require.NoError(t, err)
	assert.Equal(t, "Registration", fetched.DisplayName)
}

func TestCatalogCreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewMemoryStore().ServiceTypes())

	_, err := svc.Create(ctx, "REG", "Registration")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "REG", "Registrations Again")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCatalogCreateRequiresFields(t *testing.T) {
	svc := NewCatalogService(repository.NewMemoryStore().ServiceTypes())

	_, err := svc.Create(context.Background(), "", "Registration")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	_, err = svc.Create(context.Background(), "REG", "  ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestCatalogDeleteUnknown(t *testing.T) {
	svc := NewCatalogService(repository.NewMemoryStore().ServiceTypes())

	err := svc.Delete(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCatalogListOrderedByCode(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewMemoryStore().ServiceTypes())

	for _, code := range []string{"PAY", "REG", "INF"} {
		_, err := svc.Create(ctx, code, code+" desk")
		require.NoError(t, err)
	}

	services, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, "INF", services[0].Code)
	assert.Equal(t, "PAY", services[1].Code)
	assert.Equal(t, "REG", services[2].Code)
}
