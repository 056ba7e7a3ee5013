// Package registry abstracts container image building and pushing.
package registry

import "context"

// BuildRequest describes one image build from a remote git context.
type BuildRequest struct {
	// ContextURL is a git URL with optional fragment, e.g.
	// https://github.com/acme/shop.git#main.
	ContextURL string
	// Dockerfile is the path inside the context, defaults to "Dockerfile".
	Dockerfile string
	// Tag is the full image reference to build and push.
	Tag string
}

// Builder builds and pushes container images.
type Builder interface {
	// BuildAndPush builds the image from the request's git context and
	// pushes it, returning the manifest digest.
	BuildAndPush(ctx context.Context, req BuildRequest) (string, error)
}

// Verifier resolves the digest an image reference currently points to.
type Verifier interface {
	ResolveDigest(ctx context.Context, imageRef string) (string, error)
}
