package ports

import "context"

// ModelSource fetches serialized model bytes.
type ModelSource interface {
	// Fetch returns the raw model artifact.
	Fetch(ctx context.Context) ([]byte, error)

	// Describe names the source for logs and model info (e.g. file path, configmap ref).
	Describe() string
}
