package config

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// SecretAccessor is the subset of the Secret Manager client used to read the API key.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// ResolveAPIKey fills Auth.APIKey from Secret Manager when APIKeySecret is set.
// A bare secret id is expanded against GCP_PROJECT.
func (c *Config) ResolveAPIKey(ctx context.Context, accessor SecretAccessor) error {
	if c.Auth.APIKeySecret == "" {
		return nil
	}
	if accessor == nil {
		return fmt.Errorf("%w: MAINSTEM_API_KEY_SECRET set without a secret accessor", ErrInvalidConfig)
	}

	name, err := secretVersionName(c.Auth.APIKeySecret, c.Auth.GCPProject)
	if err != nil {
		return err
	}

	result, err := accessor.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", name, err)
	}

	key := strings.TrimSpace(string(result.GetPayload().GetData()))
	if key == "" {
		return fmt.Errorf("%w: secret %s is empty", ErrInvalidConfig, name)
	}
	c.Auth.APIKey = key
	return nil
}

func secretVersionName(secret, project string) (string, error) {
	if strings.HasPrefix(secret, "projects/") {
		if !strings.Contains(secret, "/versions/") {
			return secret + "/versions/latest", nil
		}
		return secret, nil
	}
	if project == "" {
		return "", fmt.Errorf("%w: GCP_PROJECT is required to resolve secret %q", ErrInvalidConfig, secret)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret), nil
}
