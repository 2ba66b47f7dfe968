package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/domain"
)

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, context.Background(), ctx)
			assert.Equal(t, []string{"insert", "-m", "-f", "wadash/token/clinic@example.com"}, args)
			assert.Equal(t, "jwt-token\n", input)
			return "", "", nil
		},
	}

	err := store.Put(context.Background(), "wadash/token/clinic@example.com", "jwt-token")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStoreGetUsesPassShowAndTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "wadash/token/clinic@example.com"}, args)
			assert.Empty(t, input)
			return "jwt-token\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", value)
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "wadash/token/clinic@example.com"}, args)
			assert.Empty(t, input)
			return "", "", nil
		},
	}

	err := store.Delete(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "entry not found", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.Error(t, err)
	assert.ErrorContains(t, err, "read session token")
	assert.ErrorContains(t, err, "in pass")
	assert.ErrorContains(t, err, "wadash/token/clinic@example.com")
	assert.ErrorContains(t, err, "entry not found")
}

func TestStoreMapsMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: wadash/token/clinic@example.com is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	require.NoError(t, store.Delete(context.Background(), "wadash/token/clinic@example.com"))
}

func TestStorePutNamesTheSessionToken(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "", errors.New("exit status 2")
		},
	}

	err := store.Put(context.Background(), "wadash/token/clinic@example.com", "secret")
	require.Error(t, err)
	assert.Equal(t, `save session token "wadash/token/clinic@example.com" in pass: exit status 2`, err.Error())
}
