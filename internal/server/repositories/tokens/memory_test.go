package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *MemoryRepository) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	tok := sampleToken()
	require.NoError(t, repo.Create(ctx, tok))
	assert.True(t, errors.Is(repo.Create(ctx, tok), common.ErrorConflict))
	assert.Equal(t, 1, repo.size())

	got, err := repo.FindByToken(ctx, "tok123")
	require.NoError(t, err)
	assert.Equal(t, *tok, *got)

	require.NoError(t, repo.Delete(ctx, "tok123"))
	assert.True(t, errors.Is(repo.Delete(ctx, "tok123"), common.ErrorNotFound))

	_, err = repo.FindByToken(ctx, "tok123")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
