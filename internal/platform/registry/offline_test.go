package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineBuilderDeterministic(t *testing.T) {
	b := NewOfflineBuilder()
	ctx := context.Background()

	d1, err := b.BuildAndPush(ctx, BuildRequest{Tag: "registry.example.com/acme/shop:abc"})
	require.NoError(t, err)
	d2, err := b.BuildAndPush(ctx, BuildRequest{Tag: "registry.example.com/acme/shop:abc"})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Contains(t, d1, "sha256:")
}

func TestOfflineBuilderVerificationMatches(t *testing.T) {
	b := NewOfflineBuilder()
	ctx := context.Background()
	tag := "registry.example.com/acme/shop:abc"

	pushed, err := b.BuildAndPush(ctx, BuildRequest{Tag: tag})
	require.NoError(t, err)
	resolved, err := b.ResolveDigest(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, pushed, resolved)
}
