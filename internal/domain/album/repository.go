package album

import "context"

type Repository interface {
	// Transaction runs fn against a repository bound to a single database
	// transaction. All membership transitions go through this; it is the only
	// concurrency-control mechanism in the system.
	Transaction(ctx context.Context, fn func(Repository) error) error

	// GetAlbum loads an album with its members, or ErrAlbumNotFound.
	GetAlbum(ctx context.Context, id string) (*Album, error)

	// CreateAlbum inserts the album row. A colliding code surfaces as
	// ErrCodeTaken so the caller can retry with a fresh one.
	CreateAlbum(ctx context.Context, album *Album) error

	// AddMember inserts a membership row. A duplicate surfaces as
	// ErrAlreadyMember.
	AddMember(ctx context.Context, member *Member) error

	RemoveMember(ctx context.Context, albumID, userID string) error
	DeleteAlbum(ctx context.Context, albumID string) error
	UpdateStatus(ctx context.Context, albumID string, isMarinated bool, status string) error

	ListOwned(ctx context.Context, userID string) ([]Album, error)
	ListJoined(ctx context.Context, userID string) ([]Album, error)
}
