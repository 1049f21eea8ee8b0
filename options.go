package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/jmgilman/go/errors"
)

// Backend selects where the storage account lives.
type Backend int

const (
	// BackendAzure targets the public Azure cloud.
	BackendAzure Backend = iota

	// BackendAzurite targets a local Azurite emulator on 127.0.0.1:10000.
	BackendAzurite
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendAzure:
		return "azure"
	case BackendAzurite:
		return "azurite"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// CredentialKind identifies which credential an Options value carries.
type CredentialKind int

const (
	// CredentialKindNone means no credential has been configured.
	CredentialKindNone CredentialKind = iota

	// CredentialKindSharedKey signs requests with the account name and key.
	CredentialKindSharedKey

	// CredentialKindDefault uses the Azure default credential chain.
	CredentialKindDefault

	// CredentialKindManagedIdentity uses a system or user-assigned managed
	// identity.
	CredentialKindManagedIdentity

	// CredentialKindServicePrincipal uses an application's client secret.
	CredentialKindServicePrincipal
)

// String returns the credential kind name.
func (k CredentialKind) String() string {
	switch k {
	case CredentialKindNone:
		return "none"
	case CredentialKindSharedKey:
		return "shared-key"
	case CredentialKindDefault:
		return "default"
	case CredentialKindManagedIdentity:
		return "managed-identity"
	case CredentialKindServicePrincipal:
		return "service-principal"
	default:
		return fmt.Sprintf("CredentialKind(%d)", int(k))
	}
}

const (
	azuriteEndpoint = "http://127.0.0.1:10000/%s/"
	dfsEndpoint     = "https://%s.dfs.core.windows.net/"
	blobEndpoint    = "https://%s.blob.core.windows.net/"
)

// Options configures a FileSystem.
//
// The URLs and credential are filled in by one of the Configure methods.
// Options are copied into the filesystem at construction and never change
// afterwards.
type Options struct {
	// AccountDFSURL is the Data Lake endpoint of the account.
	AccountDFSURL string

	// AccountBlobURL is the Blob endpoint of the account. All reads go here.
	AccountBlobURL string

	// Backend selects the cloud or the local emulator. It must be set before
	// calling a Configure method.
	Backend Backend

	// CredentialKind records which credential was configured.
	CredentialKind CredentialKind

	sharedKey *azblob.SharedKeyCredential
	token     azcore.TokenCredential
}

// ConfigureAccountKeyCredentials authenticates with the account name and key.
func (o *Options) ConfigureAccountKeyCredentials(accountName, accountKey string) error {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to create shared key credential")
	}

	o.setAccountURLs(accountName)
	o.CredentialKind = CredentialKindSharedKey
	o.sharedKey = cred
	o.token = nil
	return nil
}

// ConfigureDefaultCredential authenticates with the Azure default credential
// chain (environment, workload identity, managed identity, Azure CLI).
func (o *Options) ConfigureDefaultCredential(accountName string) error {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to create default credential")
	}
	return o.setToken(accountName, CredentialKindDefault, cred)
}

// ConfigureManagedIdentityCredential authenticates with a managed identity.
// An empty clientID selects the system-assigned identity.
func (o *Options) ConfigureManagedIdentityCredential(accountName, clientID string) error {
	opts := &azidentity.ManagedIdentityCredentialOptions{}
	if clientID != "" {
		opts.ID = azidentity.ClientID(clientID)
	}
	cred, err := azidentity.NewManagedIdentityCredential(opts)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to create managed identity credential")
	}
	return o.setToken(accountName, CredentialKindManagedIdentity, cred)
}

// ConfigureServicePrincipalCredential authenticates as an Entra ID application
// with a client secret.
func (o *Options) ConfigureServicePrincipalCredential(accountName, tenantID, clientID, clientSecret string) error {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to create service principal credential")
	}
	return o.setToken(accountName, CredentialKindServicePrincipal, cred)
}

// Equals reports whether o and other address the same account with the same
// kind of credential. Credential secrets are not compared.
func (o Options) Equals(other Options) bool {
	return o.AccountDFSURL == other.AccountDFSURL &&
		o.AccountBlobURL == other.AccountBlobURL &&
		o.CredentialKind == other.CredentialKind
}

func (o *Options) setToken(accountName string, kind CredentialKind, cred azcore.TokenCredential) error {
	if o.Backend == BackendAzurite {
		return errors.Newf(errors.CodeInvalidConfig,
			"the %s backend only supports account key credentials", o.Backend)
	}
	o.setAccountURLs(accountName)
	o.CredentialKind = kind
	o.token = cred
	o.sharedKey = nil
	return nil
}

func (o *Options) setAccountURLs(accountName string) {
	if o.Backend == BackendAzurite {
		o.AccountDFSURL = fmt.Sprintf(azuriteEndpoint, accountName)
		o.AccountBlobURL = fmt.Sprintf(azuriteEndpoint, accountName)
		return
	}
	o.AccountDFSURL = fmt.Sprintf(dfsEndpoint, accountName)
	o.AccountBlobURL = fmt.Sprintf(blobEndpoint, accountName)
}

// validate checks that the options can be used to build a store client.
func (o *Options) validate() error {
	if o.AccountBlobURL == "" {
		return errors.New(errors.CodeInvalidConfig, "account blob URL is required")
	}
	switch o.CredentialKind {
	case CredentialKindSharedKey:
		if o.sharedKey == nil {
			return errors.New(errors.CodeInvalidConfig, "shared key credential is missing")
		}
	case CredentialKindDefault, CredentialKindManagedIdentity, CredentialKindServicePrincipal:
		if o.token == nil {
			return errors.New(errors.CodeInvalidConfig, "token credential is missing")
		}
	default:
		return errors.New(errors.CodeInvalidConfig, "no credentials configured")
	}
	return nil
}
