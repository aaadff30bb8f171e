package album

import (
	"context"
	"errors"
	"strings"
	"time"
)

const defaultDisplayName = "Unknown User"

type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		cache:    noopCache{},
		cacheTTL: time.Minute,
		now:      time.Now,
	}
}

// WithOverviewCache enables caching of per-user overview results.
func (s *Service) WithOverviewCache(cache Cache, ttl time.Duration) *Service {
	if cache != nil {
		s.cache = cache
	}
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

type CreateAlbumInput struct {
	Name              string
	Description       string
	EventDate         time.Time
	MarinationEndDate time.Time
	IsPrivate         bool
	AllowGuestUploads *bool
	MaxPhotosPerUser  *int
}

// CreateAlbum persists a new album together with the creator's membership in
// one transaction. The join code is the primary key, so a collision fails the
// insert and we retry with a fresh code instead of checking first.
func (s *Service) CreateAlbum(ctx context.Context, input CreateAlbumInput, creator Identity) (*Album, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !input.MarinationEndDate.After(input.EventDate) {
		return nil, ErrInvalidDates
	}

	now := s.now().UTC()
	marinated := !now.Before(input.MarinationEndDate)
	status := StatusActive
	if marinated {
		status = StatusMarinated
	}

	allowGuestUploads := true
	if input.AllowGuestUploads != nil {
		allowGuestUploads = *input.AllowGuestUploads
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, err
		}

		record := Album{
			ID:                 code,
			Name:               name,
			Description:        strings.TrimSpace(input.Description),
			EventDate:          input.EventDate,
			MarinationEndDate:  input.MarinationEndDate,
			CreatorID:          creator.ID,
			CreatorDisplayName: displayNameOf(creator),
			IsPrivate:          input.IsPrivate,
			AllowGuestUploads:  allowGuestUploads,
			MaxPhotosPerUser:   input.MaxPhotosPerUser,
			Status:             status,
			IsMarinated:        marinated,
		}
		member := Member{
			AlbumID:     code,
			UserID:      creator.ID,
			DisplayName: displayNameOf(creator),
			PhotoURL:    photoURLOf(creator),
			Role:        RoleCreator,
			JoinedAt:    now,
		}

		err = s.repo.Transaction(ctx, func(tx Repository) error {
			if err := tx.CreateAlbum(ctx, &record); err != nil {
				return err
			}
			return tx.AddMember(ctx, &member)
		})
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		record.Members = []Member{member}
		s.cache.Delete(creator.ID)
		return &record, nil
	}

	return nil, ErrCodeGenerationFailed
}

func (s *Service) GetAlbum(ctx context.Context, albumID string) (*Album, error) {
	return s.repo.GetAlbum(ctx, albumID)
}

// JoinAlbum adds the user to the album behind the code. The membership check
// and the insert run in one transaction, so two concurrent joins by the same
// user cannot both succeed.
func (s *Service) JoinAlbum(ctx context.Context, code string, user Identity) (*Album, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}

	var result *Album
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		record, err := tx.GetAlbum(ctx, code)
		if err != nil {
			return err
		}
		if record.HasMember(user.ID) {
			return ErrAlreadyMember
		}

		member := Member{
			AlbumID:     code,
			UserID:      user.ID,
			DisplayName: displayNameOf(user),
			PhotoURL:    photoURLOf(user),
			Role:        RoleMember,
			JoinedAt:    s.now().UTC(),
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		record.Members = append(record.Members, member)
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Every member's cached overview now lists an outdated member set.
	for _, member := range result.Members {
		s.cache.Delete(member.UserID)
	}
	return result, nil
}

// LeaveAlbum removes a member. Creators are forbidden from leaving; they
// delete the album instead.
func (s *Service) LeaveAlbum(ctx context.Context, albumID, userID string) error {
	var memberIDs []string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		record, err := tx.GetAlbum(ctx, albumID)
		if err != nil {
			return err
		}
		if record.CreatorID == userID {
			return ErrCreatorCannotLeave
		}
		if !record.HasMember(userID) {
			return ErrMemberNotFound
		}
		memberIDs = record.MemberIDs()
		return tx.RemoveMember(ctx, albumID, userID)
	})
	if err != nil {
		return err
	}

	for _, memberID := range memberIDs {
		s.cache.Delete(memberID)
	}
	return nil
}

// DeleteAlbum hard-deletes the album and all memberships. Creator only.
func (s *Service) DeleteAlbum(ctx context.Context, albumID, userID string) error {
	var memberIDs []string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		record, err := tx.GetAlbum(ctx, albumID)
		if err != nil {
			return err
		}
		if record.CreatorID != userID {
			return ErrNotCreator
		}
		memberIDs = record.MemberIDs()
		return tx.DeleteAlbum(ctx, albumID)
	})
	if err != nil {
		return err
	}

	for _, memberID := range memberIDs {
		s.cache.Delete(memberID)
	}
	return nil
}

// RefreshMarinationStatus recomputes is_marinated from the marination end
// date and writes only when the stored value is stale. Archived albums are
// left alone.
func (s *Service) RefreshMarinationStatus(ctx context.Context, albumID string) error {
	record, err := s.repo.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	if record.Status == StatusArchived {
		return nil
	}

	marinated := !s.now().Before(record.MarinationEndDate)
	if record.IsMarinated == marinated {
		return nil
	}

	status := StatusActive
	if marinated {
		status = StatusMarinated
	}
	return s.repo.UpdateStatus(ctx, albumID, marinated, status)
}

func (s *Service) ListOwned(ctx context.Context, userID string) ([]Album, error) {
	return s.repo.ListOwned(ctx, userID)
}

func (s *Service) ListJoined(ctx context.Context, userID string) ([]Album, error) {
	return s.repo.ListJoined(ctx, userID)
}

// Overview aggregates a user's owned and joined albums in one call, cached
// per user for a short TTL. Membership transitions invalidate the entries of
// everyone in the affected album.
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	if cached, ok := s.cache.Get(userID); ok {
		return cached, nil
	}

	owned, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &Overview{Owned: owned, Joined: joined}
	s.cache.Set(userID, overview, s.cacheTTL)
	return overview, nil
}

func (s *Service) MemberCount(ctx context.Context, albumID string) (int, error) {
	record, err := s.repo.GetAlbum(ctx, albumID)
	if err != nil {
		return 0, err
	}
	return len(record.Members), nil
}

func (s *Service) IsMember(ctx context.Context, albumID, userID string) (bool, error) {
	record, err := s.repo.GetAlbum(ctx, albumID)
	if err != nil {
		return false, err
	}
	return record.HasMember(userID), nil
}

// RoleIn returns the user's role in the album, or "" when not a member.
func (s *Service) RoleIn(ctx context.Context, albumID, userID string) (string, error) {
	record, err := s.repo.GetAlbum(ctx, albumID)
	if err != nil {
		return "", err
	}
	return record.RoleOf(userID), nil
}

type Overview struct {
	Owned  []Album
	Joined []Album
}

// All concatenates owned and joined albums, owned first.
func (o *Overview) All() []Album {
	all := make([]Album, 0, len(o.Owned)+len(o.Joined))
	all = append(all, o.Owned...)
	all = append(all, o.Joined...)
	return all
}

func displayNameOf(user Identity) string {
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		return defaultDisplayName
	}
	return name
}

func photoURLOf(user Identity) *string {
	url := strings.TrimSpace(user.PhotoURL)
	if url == "" {
		return nil
	}
	return &url
}
