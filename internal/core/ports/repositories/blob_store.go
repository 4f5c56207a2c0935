package repositories

import "context"

// BlobStore is the artifact storage contract used by the audit
// service. Implementations must satisfy the full interface; partial
// "optional method" stores are not allowed.
type BlobStore interface {
	// Store writes a named blob, replacing any previous content.
	Store(ctx context.Context, name string, data []byte) error

	// Retrieve reads a named blob, or apperrors.ErrNotFound.
	Retrieve(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether a named blob is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes a named blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
