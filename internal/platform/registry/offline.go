package registry

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// OfflineBuilder fabricates deterministic digests without touching a
// daemon or registry. Used when no registry is configured.
type OfflineBuilder struct{}

// NewOfflineBuilder creates an OfflineBuilder.
func NewOfflineBuilder() *OfflineBuilder {
	return &OfflineBuilder{}
}

// BuildAndPush returns a digest derived from the tag so repeated runs for
// the same commit agree.
func (OfflineBuilder) BuildAndPush(_ context.Context, req BuildRequest) (string, error) {
	sum := sha256.Sum256([]byte(req.Tag))
	return fmt.Sprintf("sha256:%x", sum), nil
}

// ResolveDigest mirrors BuildAndPush so verification always matches.
func (OfflineBuilder) ResolveDigest(_ context.Context, imageRef string) (string, error) {
	sum := sha256.Sum256([]byte(imageRef))
	return fmt.Sprintf("sha256:%x", sum), nil
}
