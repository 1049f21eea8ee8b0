package azure

import (
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureAccountKeyCredentials(t *testing.T) {
	tests := []struct {
		name     string
		backend  Backend
		wantDFS  string
		wantBlob string
	}{
		{
			name:     "azure",
			backend:  BackendAzure,
			wantDFS:  "https://account.dfs.core.windows.net/",
			wantBlob: "https://account.blob.core.windows.net/",
		},
		{
			name:     "azurite",
			backend:  BackendAzurite,
			wantDFS:  "http://127.0.0.1:10000/account/",
			wantBlob: "http://127.0.0.1:10000/account/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Backend: tt.backend}
			require.NoError(t, opts.ConfigureAccountKeyCredentials("account", emulatorKey))

			assert.Equal(t, tt.wantDFS, opts.AccountDFSURL)
			assert.Equal(t, tt.wantBlob, opts.AccountBlobURL)
			assert.Equal(t, CredentialKindSharedKey, opts.CredentialKind)
			assert.NoError(t, opts.validate())
		})
	}

	t.Run("invalid key", func(t *testing.T) {
		opts := Options{}
		err := opts.ConfigureAccountKeyCredentials("account", "not base64!")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		assert.Equal(t, CredentialKindNone, opts.CredentialKind)
	})
}

func TestConfigureTokenCredentials(t *testing.T) {
	t.Run("service principal", func(t *testing.T) {
		opts := Options{}
		require.NoError(t, opts.ConfigureServicePrincipalCredential("account", "tenant-id", "client-id", "secret"))

		assert.Equal(t, CredentialKindServicePrincipal, opts.CredentialKind)
		assert.Equal(t, "https://account.blob.core.windows.net/", opts.AccountBlobURL)
		assert.Equal(t, "https://account.dfs.core.windows.net/", opts.AccountDFSURL)
		assert.NoError(t, opts.validate())
	})

	t.Run("managed identity", func(t *testing.T) {
		opts := Options{}
		require.NoError(t, opts.ConfigureManagedIdentityCredential("account", "client-id"))
		assert.Equal(t, CredentialKindManagedIdentity, opts.CredentialKind)
		assert.NoError(t, opts.validate())
	})

	t.Run("emulator rejects tokens", func(t *testing.T) {
		opts := Options{Backend: BackendAzurite}
		err := opts.ConfigureServicePrincipalCredential("account", "tenant-id", "client-id", "secret")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		assert.Empty(t, opts.AccountBlobURL)
	})
}

func TestOptionsEquals(t *testing.T) {
	base := Options{}
	require.NoError(t, base.ConfigureAccountKeyCredentials("account", emulatorKey))

	sameAccountOtherKey := Options{}
	require.NoError(t, sameAccountOtherKey.ConfigureAccountKeyCredentials("account", "b3RoZXJrZXk="))

	otherAccount := Options{}
	require.NoError(t, otherAccount.ConfigureAccountKeyCredentials("other", emulatorKey))

	otherKind := Options{}
	require.NoError(t, otherKind.ConfigureServicePrincipalCredential("account", "tenant-id", "client-id", "secret"))

	emulator := Options{Backend: BackendAzurite}
	require.NoError(t, emulator.ConfigureAccountKeyCredentials("account", emulatorKey))

	assert.True(t, base.Equals(base))
	assert.True(t, base.Equals(sameAccountOtherKey), "secrets are not compared")
	assert.False(t, base.Equals(otherAccount))
	assert.False(t, base.Equals(otherKind))
	assert.False(t, base.Equals(emulator))
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		errMsg string
	}{
		{
			name:   "missing url",
			opts:   Options{},
			errMsg: "account blob URL is required",
		},
		{
			name:   "no credentials",
			opts:   Options{AccountBlobURL: "https://account.blob.core.windows.net/"},
			errMsg: "no credentials configured",
		},
		{
			name:   "kind without credential",
			opts:   Options{AccountBlobURL: "https://a/", CredentialKind: CredentialKindSharedKey},
			errMsg: "shared key credential is missing",
		},
		{
			name:   "token kind without credential",
			opts:   Options{AccountBlobURL: "https://a/", CredentialKind: CredentialKindDefault},
			errMsg: "token credential is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	opts := Options{Backend: BackendAzurite}
	require.NoError(t, opts.ConfigureAccountKeyCredentials(emulatorAccount, emulatorKey))
	fsys, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, "abfs", fsys.TypeName())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "azurite", BackendAzurite.String())
	assert.Equal(t, "shared-key", CredentialKindSharedKey.String())
	assert.Equal(t, "service-principal", CredentialKindServicePrincipal.String())
	assert.Equal(t, "directory", FileTypeDirectory.String())
	assert.Equal(t, "not-found", FileTypeNotFound.String())
}
