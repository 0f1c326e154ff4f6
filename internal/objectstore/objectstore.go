// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package objectstore uploads log documents to Azure Blob Storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/caarlos0/env/v11"
)

const contentType = "application/json"

var (
	// ErrMissingEnvVariable reports missing mandatory environment variables.
	ErrMissingEnvVariable = errors.New("missing environment variable")
)

// Config holds what is needed to reach a storage account.
type Config struct {
	ConnectionString string `env:"AZURE_STORAGE_BLOB_CONNECTION_STRING"`
	AccountName      string `env:"AZURE_STORAGE_BLOB_ACCOUNT_NAME"`
}

// LoadConfig reads Config from the environment and validates it.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether either credential source is present.
func (c Config) Validate() error {
	if len(c.ConnectionString) == 0 && len(c.AccountName) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnvVariable, "one of AZURE_STORAGE_BLOB_CONNECTION_STRING or AZURE_STORAGE_BLOB_ACCOUNT_NAME")
	}
	return nil
}

func (c Config) serviceURL() string {
	if strings.Contains(c.AccountName, ".blob.core.windows.net") {
		return c.AccountName
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.AccountName)
}

type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureUploader writes each document as a block blob. The bucket passed to
// Upload names the container.
type AzureUploader struct {
	client blobUploader
}

// NewAzureUploader builds a client from cfg. A connection string takes
// precedence; otherwise the account name is used with the default Azure
// credential chain. Requests carry applicationID in their User-Agent and
// are never retried.
func NewAzureUploader(cfg Config, applicationID string) (*AzureUploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Telemetry: policy.TelemetryOptions{ApplicationID: applicationID},
			Retry:     policy.RetryOptions{MaxRetries: -1},
		},
	}

	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
		if err != nil {
			return nil, fmt.Errorf("create blob client from connection string: %w", err)
		}
		return &AzureUploader{client: client}, nil
	}

	credentials, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("load azure credentials: %w", err)
	}
	client, err := azblob.NewClient(cfg.serviceURL(), credentials, opts)
	if err != nil {
		return nil, fmt.Errorf("create blob client for %s: %w", cfg.AccountName, err)
	}
	return &AzureUploader{client: client}, nil
}

// NewAzureUploaderFromEnv combines LoadConfig and NewAzureUploader.
func NewAzureUploaderFromEnv(applicationID string) (*AzureUploader, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewAzureUploader(cfg, applicationID)
}

// Upload stores body as a JSON blob named key in container bucket.
func (u *AzureUploader) Upload(ctx context.Context, bucket, key string, body []byte) error {
	ct := contentType
	_, err := u.client.UploadBuffer(ctx, bucket, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}
