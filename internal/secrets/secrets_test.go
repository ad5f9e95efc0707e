package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_Environment(t *testing.T) {
	t.Setenv("CRM_TEST_SECRET", "from-env")
	t.Setenv("CRM_TEST_OVERRIDE", "override")

	p, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, p.Source())

	value, err := p.GetSecret(context.Background(), "CRM_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	value, err = p.GetSecretOrEnv(context.Background(), "CRM_TEST_SECRET", "CRM_TEST_OVERRIDE")
	require.NoError(t, err)
	assert.Equal(t, "override", value)

	_, err = p.GetSecret(context.Background(), "CRM_TEST_MISSING")
	assert.Error(t, err)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestVaultClient_Cache(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, name string) (string, error) {
		calls++
		if name == "broken" {
			return "", errors.New("forbidden")
		}
		return name + "-value", nil
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := newVaultClient(fetch, &VaultConfig{CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())
	v.now = func() time.Time { return now }
	ctx := context.Background()

	value, err := v.GetSecret(ctx, "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-secret-value", value)

	_, _ = v.GetSecret(ctx, "jwt-secret")
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Minute)
	_, _ = v.GetSecret(ctx, "jwt-secret")
	assert.Equal(t, 2, calls)

	v.ClearCache()
	_, _ = v.GetSecret(ctx, "jwt-secret")
	assert.Equal(t, 3, calls)

	_, err = v.GetSecret(ctx, "broken")
	assert.Error(t, err)
}
