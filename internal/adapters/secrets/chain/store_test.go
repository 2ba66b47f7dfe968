package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/domain"
	portmocks "github.com/bnema/wadash/internal/ports/mocks"
)

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.Error(t, err)
	assert.ErrorContains(t, err, "read session token")
	assert.ErrorContains(t, err, "primary store: pass failed")
	assert.ErrorContains(t, err, "fallback store: file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, "wadash/token/clinic@example.com", "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, "wadash/token/clinic@example.com", "secret").Return(nil).Once()

	err := store.Put(context.Background(), "wadash/token/clinic@example.com", "secret")
	require.NoError(t, err)
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, "wadash/token/clinic@example.com", "secret").Return(nil).Once()

	err := store.Put(context.Background(), "wadash/token/clinic@example.com", "secret")
	require.NoError(t, err)
}

func TestStoreDeleteClearsFallbackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(nil).Once()

	err := store.Delete(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(nil).Once()

	err := store.Delete(context.Background(), "wadash/token/clinic@example.com")
	require.NoError(t, err)
}

func TestStoreDeleteReportsFallbackFailure(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, "wadash/token/clinic@example.com").Return(errors.New("read-only")).Once()

	err := store.Delete(context.Background(), "wadash/token/clinic@example.com")
	require.ErrorContains(t, err, "remove session token from fallback store")
}

func TestStoreGetKeepsNotFoundAcrossBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "wadash/token/clinic@example.com").Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), "wadash/token/clinic@example.com")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsMissingStores(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSecretStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)
	assert.EqualError(t, err, "chain token store needs a primary store")

	_, err = NewStoreChecked(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
