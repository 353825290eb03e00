package config

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type SecretFetcher interface {
	AccessSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type gcpSecrets struct {
	client  *secretmanager.Client
	project string
}

var newSecretFetcher = func(ctx context.Context, project string) (SecretFetcher, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &gcpSecrets{client: client, project: project}, nil
}

func (s *gcpSecrets) AccessSecret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *gcpSecrets) Close() error {
	return s.client.Close()
}

// loadSecrets fills missing OAuth client credentials from Secret Manager.
// Values already set from the environment are kept.
func loadSecrets(ctx context.Context, cfg *Config) error {
	fetcher, err := newSecretFetcher(ctx, cfg.GCPProject)
	if err != nil {
		return err
	}
	defer func() { _ = fetcher.Close() }()

	if cfg.YouTubeClientID == "" {
		value, err := fetcher.AccessSecret(ctx, cfg.GCP.ClientIDSecret)
		if err != nil {
			return err
		}
		cfg.YouTubeClientID = value
	}

	if cfg.YouTubeClientSecret == "" {
		value, err := fetcher.AccessSecret(ctx, cfg.GCP.ClientSecretSecret)
		if err != nil {
			return err
		}
		cfg.YouTubeClientSecret = value
	}

	return nil
}
