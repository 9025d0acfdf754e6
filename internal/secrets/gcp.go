package secrets

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ryzeagent/adsmcp/internal/logging"
)

// Manager resolves and stores secrets in Google Secret Manager.
type Manager struct {
	client    *secretmanager.Client
	projectID string
	logger    *slog.Logger
}

// NewManager connects to Secret Manager using ambient application default
// credentials.
func NewManager(ctx context.Context, projectID string, logger *slog.Logger) (*Manager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("secrets: project id is required")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: creating client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{client: client, projectID: projectID, logger: logger}, nil
}

// Close releases the underlying gRPC connection.
func (m *Manager) Close() error {
	return m.client.Close()
}

// Resolve fetches the payload behind a secret reference. The reference may be
// a bare secret id or a fully qualified version resource name; bare ids and
// version-less names resolve to the latest version. A gRPC NotFound maps to
// ErrNotFound so callers can tell a dangling reference from a fetch failure.
func (m *Manager) Resolve(ctx context.Context, name string) ([]byte, error) {
	version := VersionName(m.projectID, name)
	resp, err := m.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: version,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("accessing %s: %w", version, ErrNotFound)
		}
		return nil, fmt.Errorf("accessing %s: %w", version, err)
	}
	return resp.GetPayload().GetData(), nil
}

// StoreUserRefreshToken writes a user's refresh token as a new version of
// that user's secret, creating the secret on first use. Returns the created
// version's resource name.
func (m *Manager) StoreUserRefreshToken(ctx context.Context, userID, refreshToken string) (string, error) {
	secretID := UserSecretID(userID)
	parent := fmt.Sprintf("projects/%s", m.projectID)
	secretName := fmt.Sprintf("%s/secrets/%s", parent, secretID)

	_, err := m.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   parent,
		SecretId: secretID,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	switch {
	case err == nil:
		m.logger.Info("created user secret",
			logging.Operation("secrets.create"),
			logging.UserHash(userID))
	case status.Code(err) == codes.AlreadyExists:
		// Existing secret, just add a version.
	default:
		return "", fmt.Errorf("creating secret %s: %w", secretID, err)
	}

	version, err := m.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretName,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(refreshToken)},
	})
	if err != nil {
		return "", fmt.Errorf("adding version to %s: %w", secretID, err)
	}

	m.logger.Info("stored user refresh token",
		logging.Operation("secrets.add_version"),
		logging.UserHash(userID))
	return version.GetName(), nil
}
