package repository

import "context"

// ArtifactStore owns all upload and result file paths. Refs are relative
// keys of the form <YYYY-MM-DD>/<name>.<ext>; files are immutable once
// written and never overwritten in place.
type ArtifactStore interface {
	// Put writes data under a freshly generated name in today's UTC date
	// partition and returns the ref. Extensions outside the allow-list are
	// rejected with domain.ErrUnsupportedType.
	Put(ctx context.Context, data []byte, ext string) (string, error)

	Get(ctx context.Context, ref string) ([]byte, error)

	// Stat verifies a ref resolves to an existing artifact.
	Stat(ctx context.Context, ref string) error

	Delete(ctx context.Context, ref string) error

	// Path resolves a ref to an absolute filesystem path for handing to the
	// external transformer.
	Path(ref string) (string, error)

	// Partitions lists the date-partition names currently on disk.
	Partitions() ([]string, error)

	// RemovePartition deletes a whole date partition and everything in it.
	RemovePartition(day string) error
}
