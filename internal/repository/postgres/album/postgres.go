package album

import (
	"context"
	"errors"

	albumdomain "latergram-go/internal/domain/album"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(albumdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetAlbum(ctx context.Context, id string) (*albumdomain.Album, error) {
	var record albumdomain.Album
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at asc")
		}).
		First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, albumdomain.ErrAlbumNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *PostgresRepository) CreateAlbum(ctx context.Context, record *albumdomain.Album) error {
	err := r.db.WithContext(ctx).Omit("Members").Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return albumdomain.ErrCodeTaken
	}
	return err
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *albumdomain.Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return albumdomain.ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, albumID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&albumdomain.Member{}, "album_id = ? AND user_id = ?", albumID, userID).Error
}

func (r *PostgresRepository) DeleteAlbum(ctx context.Context, albumID string) error {
	// Membership rows go with the album via ON DELETE CASCADE, inside the
	// same transaction as the album delete.
	return r.db.WithContext(ctx).Delete(&albumdomain.Album{}, "id = ?", albumID).Error
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, albumID string, isMarinated bool, status string) error {
	return r.db.WithContext(ctx).
		Model(&albumdomain.Album{}).
		Where("id = ?", albumID).
		Updates(map[string]interface{}{
			"is_marinated": isMarinated,
			"status":       status,
		}).Error
}

func (r *PostgresRepository) ListOwned(ctx context.Context, userID string) ([]albumdomain.Album, error) {
	var records []albumdomain.Album
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at asc")
		}).
		Where("creator_id = ?", userID).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresRepository) ListJoined(ctx context.Context, userID string) ([]albumdomain.Album, error) {
	var records []albumdomain.Album
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at asc")
		}).
		Joins("join album_members on album_members.album_id = albums.id").
		Where("album_members.user_id = ? AND albums.creator_id <> ?", userID, userID).
		Order("albums.created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
