package registry

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	registrytypes "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// DockerBuilder builds images through the Docker daemon and pushes them to
// the configured registry.
type DockerBuilder struct {
	docker   client.APIClient
	username string
	password string
	log      logr.Logger
}

// NewDockerBuilder creates a builder against the local Docker daemon.
func NewDockerBuilder(username, password string, log logr.Logger) (*DockerBuilder, error) {
	docker, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerBuilder{
		docker:   docker,
		username: username,
		password: password,
		log:      log,
	}, nil
}

// BuildAndPush builds the image from a remote git context and pushes it.
func (b *DockerBuilder) BuildAndPush(ctx context.Context, req BuildRequest) (string, error) {
	dockerfile := req.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	resp, err := b.docker.ImageBuild(ctx, nil, build.ImageBuildOptions{
		RemoteContext: req.ContextURL,
		Dockerfile:    dockerfile,
		Tags:          []string{req.Tag},
		Remove:        true,
		ForceRemove:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start image build: %w", err)
	}
	defer resp.Body.Close()

	if err := b.drainBuildOutput(resp.Body); err != nil {
		return "", fmt.Errorf("image build failed: %w", err)
	}

	auth, err := b.registryAuth()
	if err != nil {
		return "", err
	}
	push, err := b.docker.ImagePush(ctx, req.Tag, image.PushOptions{RegistryAuth: auth})
	if err != nil {
		return "", fmt.Errorf("failed to start image push: %w", err)
	}
	defer push.Close()

	digest, err := b.drainPushOutput(push)
	if err != nil {
		return "", fmt.Errorf("image push failed: %w", err)
	}
	return digest, nil
}

// buildMessage is the subset of the daemon's JSON stream we care about.
type buildMessage struct {
	Stream string `json:"stream"`
	Error  string `json:"error"`
	Aux    struct {
		Digest string `json:"Digest"`
	} `json:"aux"`
}

func (b *DockerBuilder) drainBuildOutput(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg buildMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return fmt.Errorf("%s", msg.Error)
		}
		if line := strings.TrimSpace(msg.Stream); line != "" {
			b.log.V(1).Info(line)
		}
	}
	return scanner.Err()
}

func (b *DockerBuilder) drainPushOutput(r io.Reader) (string, error) {
	var digest string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg buildMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return "", fmt.Errorf("%s", msg.Error)
		}
		if msg.Aux.Digest != "" {
			digest = msg.Aux.Digest
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return digest, nil
}

func (b *DockerBuilder) registryAuth() (string, error) {
	if b.username == "" {
		return "", nil
	}
	cfg := registrytypes.AuthConfig{
		Username: b.username,
		Password: b.password,
	}
	buf, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode registry auth: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// RemoteVerifier resolves digests directly against the registry API.
type RemoteVerifier struct {
	username string
	password string
}

// NewRemoteVerifier creates a verifier with optional basic-auth credentials.
func NewRemoteVerifier(username, password string) *RemoteVerifier {
	return &RemoteVerifier{username: username, password: password}
}

// ResolveDigest returns the manifest digest the reference points to.
func (v *RemoteVerifier) ResolveDigest(ctx context.Context, imageRef string) (string, error) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", imageRef, err)
	}

	auth := authn.Authenticator(authn.Anonymous)
	if v.username != "" {
		auth = &authn.Basic{Username: v.username, Password: v.password}
	}

	desc, err := remote.Head(ref, remote.WithContext(ctx), remote.WithAuth(auth))
	if err != nil {
		return "", fmt.Errorf("failed to resolve digest for %s: %w", imageRef, err)
	}
	return desc.Digest.String(), nil
}
