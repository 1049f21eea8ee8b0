// Package config loads azfs configuration files.
//
// Files may be written in YAML (.yaml, .yml) or CUE (.cue). Both decode into
// the same File structure; CUE files may additionally constrain values with
// schemas and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/jmgilman/go/errors"
	azure "github.com/jmgilman/go/fs/azure"
	"github.com/jmgilman/go/fs/azure/internal/logging"
	"github.com/jmgilman/go/fs/azure/store"
	"github.com/jmgilman/go/fs/azure/store/miniostore"
	"gopkg.in/yaml.v3"
)

// AccountKeyEnv is consulted when a shared-key credential has no key.
const AccountKeyEnv = "AZURE_STORAGE_KEY"

// File is the on-disk configuration.
type File struct {
	// Backend is "azure" (default) or "azurite".
	Backend string `yaml:"backend" json:"backend"`

	// Account is the storage account name.
	Account string `yaml:"account" json:"account"`

	Credential Credential `yaml:"credential" json:"credential"`

	// Store selects the object store implementation: "azure" (default) or
	// "minio" for S3-compatible endpoints.
	Store string `yaml:"store" json:"store"`

	MinIO MinIO `yaml:"minio" json:"minio"`

	IO IO `yaml:"io" json:"io"`

	Logging logging.Config `yaml:"logging" json:"logging"`
}

// Credential selects and parameterizes the account credential.
type Credential struct {
	// Kind is shared-key, default, managed-identity or service-principal.
	Kind         string `yaml:"kind" json:"kind"`
	AccountKey   string `yaml:"account_key" json:"account_key"`
	TenantID     string `yaml:"tenant_id" json:"tenant_id"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
}

// MinIO configures the S3-compatible store.
type MinIO struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// IO configures request execution.
type IO struct {
	// RequestTimeout is a Go duration string such as "30s".
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
	Concurrency    int    `yaml:"concurrency" json:"concurrency"`
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"failed to read config file", map[string]interface{}{"file_path": path})
	}
	return Parse(path, data)
}

// Parse decodes data, choosing the format from the extension of name.
func Parse(name string, data []byte) (*File, error) {
	var f File
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
				"failed to parse YAML config", map[string]interface{}{"file_path": name})
		}
	case ".cue":
		if err := decodeCUE(name, data, &f); err != nil {
			return nil, err
		}
	default:
		return nil, errors.WithContext(
			errors.Newf(errors.CodeInvalidConfig, "unsupported config file extension %q", ext),
			"file_path", name)
	}
	return &f, nil
}

func decodeCUE(name string, data []byte, target *File) error {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return errors.WrapWithContext(err, errors.CodeCUEBuildFailed,
			"failed to compile CUE config", map[string]interface{}{"file_path": name})
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return errors.WrapWithContext(err, errors.CodeCUEValidationFailed,
			"CUE config is not concrete", map[string]interface{}{"file_path": name})
	}
	if err := value.Decode(target); err != nil {
		return errors.WrapWithContext(err, errors.CodeCUEDecodeFailed,
			"failed to decode CUE config", map[string]interface{}{"file_path": name})
	}
	return nil
}

// ApplyEnv fills values that were left empty from the environment.
func (f *File) ApplyEnv(getenv func(string) string) {
	if f.credentialKind() == "shared-key" && f.Credential.AccountKey == "" {
		f.Credential.AccountKey = getenv(AccountKeyEnv)
	}
}

func (f *File) credentialKind() string {
	if f.Credential.Kind == "" {
		return "shared-key"
	}
	return strings.ToLower(f.Credential.Kind)
}

// Options builds filesystem options from the file.
func (f *File) Options() (azure.Options, error) {
	var opts azure.Options
	switch strings.ToLower(f.Backend) {
	case "", "azure":
		opts.Backend = azure.BackendAzure
	case "azurite":
		opts.Backend = azure.BackendAzurite
	default:
		return opts, errors.Newf(errors.CodeInvalidConfig, "unknown backend %q", f.Backend)
	}

	if f.Account == "" {
		return opts, errors.New(errors.CodeInvalidConfig, "account is required")
	}

	var err error
	c := f.Credential
	switch kind := f.credentialKind(); kind {
	case "shared-key":
		if c.AccountKey == "" {
			return opts, errors.Newf(errors.CodeInvalidConfig,
				"account key is required for shared-key credentials (set %s)", AccountKeyEnv)
		}
		err = opts.ConfigureAccountKeyCredentials(f.Account, c.AccountKey)
	case "default":
		err = opts.ConfigureDefaultCredential(f.Account)
	case "managed-identity":
		err = opts.ConfigureManagedIdentityCredential(f.Account, c.ClientID)
	case "service-principal":
		if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
			return opts, errors.New(errors.CodeInvalidConfig,
				"tenant_id, client_id and client_secret are required for service-principal credentials")
		}
		err = opts.ConfigureServicePrincipalCredential(f.Account, c.TenantID, c.ClientID, c.ClientSecret)
	default:
		return opts, errors.Newf(errors.CodeInvalidConfig, "unknown credential kind %q", kind)
	}
	return opts, err
}

// IOContext builds the execution settings from the file.
func (f *File) IOContext() (azure.IOContext, error) {
	ioCtx := azure.DefaultIOContext()
	if f.IO.RequestTimeout != "" {
		d, err := time.ParseDuration(f.IO.RequestTimeout)
		if err != nil {
			return ioCtx, errors.Wrap(err, errors.CodeInvalidConfig, "invalid io.request_timeout")
		}
		ioCtx.RequestTimeout = d
	}
	if f.IO.Concurrency > 0 {
		ioCtx.Concurrency = f.IO.Concurrency
	}
	return ioCtx, nil
}

// Service returns the store selected by the file, or nil when the
// filesystem should build its own Azure client from the options.
func (f *File) Service() (store.Service, error) {
	switch strings.ToLower(f.Store) {
	case "", "azure":
		return nil, nil
	case "minio":
		svc, err := miniostore.New(miniostore.Config{
			Endpoint:  f.MinIO.Endpoint,
			AccessKey: f.MinIO.AccessKey,
			SecretKey: f.MinIO.SecretKey,
			UseSSL:    f.MinIO.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid minio configuration")
		}
		return svc, nil
	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "unknown store %q", f.Store)
	}
}
