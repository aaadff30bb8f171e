package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	albumdomain "latergram-go/internal/domain/album"
	"latergram-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createAlbumRequest struct {
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	EventDate         time.Time `json:"event_date"`
	MarinationEndDate time.Time `json:"marination_end_date"`
	IsPrivate         bool      `json:"is_private"`
	AllowGuestUploads *bool     `json:"allow_guest_uploads"`
	MaxPhotosPerUser  *int      `json:"max_photos_per_user"`
}

type joinAlbumRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if req.EventDate.IsZero() || req.MarinationEndDate.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_request", "event_date and marination_end_date are required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Albums.CreateAlbum(r.Context(), albumdomain.CreateAlbumInput{
		Name:              req.Name,
		Description:       req.Description,
		EventDate:         req.EventDate,
		MarinationEndDate: req.MarinationEndDate,
		IsPrivate:         req.IsPrivate,
		AllowGuestUploads: req.AllowGuestUploads,
		MaxPhotosPerUser:  req.MaxPhotosPerUser,
	}, identityOf(user))
	if err != nil {
		switch {
		case errors.Is(err, albumdomain.ErrNameRequired), errors.Is(err, albumdomain.ErrInvalidDates):
			h.log.BusinessError("albums.create: invalid input", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, albumdomain.ErrCodeGenerationFailed):
			h.log.BusinessError("albums.create: code generation exhausted", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "code_generation_exhausted", "could not allocate an album code, try again")
		default:
			h.log.InternalError("albums.create: create album failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAlbumResponse(result))
}

func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	result, err := h.Albums.GetAlbum(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, albumdomain.ErrAlbumNotFound) {
			h.log.BusinessError("albums.get: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
			return
		}
		h.log.InternalError("albums.get: get album failed", err, "album_id", albumID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toAlbumResponse(result))
}

func (h *Handlers) JoinAlbum(w http.ResponseWriter, r *http.Request) {
	var req joinAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Albums.JoinAlbum(r.Context(), req.Code, identityOf(user))
	if err != nil {
		switch {
		case errors.Is(err, albumdomain.ErrInvalidCode):
			h.log.BusinessError("albums.join: invalid code", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusBadRequest, "invalid_code", "album code must be 6 letters or digits")
		case errors.Is(err, albumdomain.ErrAlbumNotFound):
			h.log.BusinessError("albums.join: album not found", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusNotFound, "album_not_found", "no album found with this code")
		case errors.Is(err, albumdomain.ErrAlreadyMember):
			h.log.BusinessError("albums.join: already a member", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusConflict, "already_member", "you are already a member of this album")
		default:
			h.log.InternalError("albums.join: join failed", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toAlbumResponse(result))
}

func (h *Handlers) LeaveAlbum(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	if err := h.Albums.LeaveAlbum(r.Context(), albumID, user.ID); err != nil {
		switch {
		case errors.Is(err, albumdomain.ErrAlbumNotFound):
			h.log.BusinessError("albums.leave: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
		case errors.Is(err, albumdomain.ErrMemberNotFound):
			h.log.BusinessError("albums.leave: not a member", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "member_not_found", "you are not a member of this album")
		case errors.Is(err, albumdomain.ErrCreatorCannotLeave):
			h.log.BusinessError("albums.leave: creator cannot leave", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusForbidden, "creator_cannot_leave", "the creator cannot leave the album, delete it instead")
		default:
			h.log.InternalError("albums.leave: leave failed", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	if err := h.Albums.DeleteAlbum(r.Context(), albumID, user.ID); err != nil {
		switch {
		case errors.Is(err, albumdomain.ErrAlbumNotFound):
			h.log.BusinessError("albums.delete: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
		case errors.Is(err, albumdomain.ErrNotCreator):
			h.log.BusinessError("albums.delete: not creator", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusForbidden, "not_creator", "only the album creator can delete this album")
		default:
			h.log.InternalError("albums.delete: delete failed", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RefreshAlbumStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	if err := h.Albums.RefreshMarinationStatus(r.Context(), albumID); err != nil {
		if errors.Is(err, albumdomain.ErrAlbumNotFound) {
			h.log.BusinessError("albums.refresh_status: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
			return
		}
		h.log.InternalError("albums.refresh_status: refresh failed", err, "album_id", albumID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AlbumOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	overview, err := h.Albums.Overview(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("albums.overview: load failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		Owned:  toAlbumResponses(overview.Owned),
		Joined: toAlbumResponses(overview.Joined),
		All:    toAlbumResponses(overview.All()),
	})
}

func (h *Handlers) OwnedAlbums(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albums, err := h.Albums.ListOwned(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("albums.owned: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toAlbumResponses(albums))
}

func (h *Handlers) JoinedAlbums(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albums, err := h.Albums.ListJoined(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("albums.joined: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toAlbumResponses(albums))
}

func (h *Handlers) ListAlbumMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	result, err := h.Albums.GetAlbum(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, albumdomain.ErrAlbumNotFound) {
			h.log.BusinessError("albums.members: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
			return
		}
		h.log.InternalError("albums.members: get album failed", err, "album_id", albumID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	members := make([]memberResponse, 0, len(result.Members))
	for _, member := range result.Members {
		members = append(members, toMemberResponse(member))
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handlers) AlbumStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	albumID := albumdomain.NormalizeCode(chi.URLParam(r, "id"))
	result, err := h.Albums.GetAlbum(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, albumdomain.ErrAlbumNotFound) {
			h.log.BusinessError("albums.stats: album not found", err, "album_id", albumID, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "album_not_found", "album not found")
			return
		}
		h.log.InternalError("albums.stats: get album failed", err, "album_id", albumID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, albumStatsResponse{
		AlbumID:     result.ID,
		MemberCount: len(result.Members),
		PhotoCount:  result.PhotoCount,
		Status:      result.Status,
		IsMarinated: result.IsMarinated,
		Role:        result.RoleOf(user.ID),
	})
}

type overviewResponse struct {
	Owned  []albumResponse `json:"owned"`
	Joined []albumResponse `json:"joined"`
	All    []albumResponse `json:"all"`
}

type albumStatsResponse struct {
	AlbumID     string `json:"album_id"`
	MemberCount int    `json:"member_count"`
	PhotoCount  int    `json:"photo_count"`
	Status      string `json:"status"`
	IsMarinated bool   `json:"is_marinated"`
	Role        string `json:"role,omitempty"`
}

type albumResponse struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	EventDate          time.Time        `json:"event_date"`
	MarinationEndDate  time.Time        `json:"marination_end_date"`
	CreatorID          string           `json:"creator_id"`
	CreatorDisplayName string           `json:"creator_display_name"`
	MemberIDs          []string         `json:"member_ids"`
	Members            []memberResponse `json:"members"`
	PhotoCount         int              `json:"photo_count"`
	IsPrivate          bool             `json:"is_private"`
	AllowGuestUploads  bool             `json:"allow_guest_uploads"`
	MaxPhotosPerUser   *int             `json:"max_photos_per_user,omitempty"`
	Status             string           `json:"status"`
	IsMarinated        bool             `json:"is_marinated"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type memberResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	Role        string    `json:"role"`
	PhotoCount  int       `json:"photo_count"`
	JoinedAt    time.Time `json:"joined_at"`
}

func toAlbumResponse(record *albumdomain.Album) albumResponse {
	members := make([]memberResponse, 0, len(record.Members))
	for _, member := range record.Members {
		members = append(members, toMemberResponse(member))
	}

	return albumResponse{
		ID:                 record.ID,
		Name:               record.Name,
		Description:        record.Description,
		EventDate:          record.EventDate,
		MarinationEndDate:  record.MarinationEndDate,
		CreatorID:          record.CreatorID,
		CreatorDisplayName: record.CreatorDisplayName,
		MemberIDs:          record.MemberIDs(),
		Members:            members,
		PhotoCount:         record.PhotoCount,
		IsPrivate:          record.IsPrivate,
		AllowGuestUploads:  record.AllowGuestUploads,
		MaxPhotosPerUser:   record.MaxPhotosPerUser,
		Status:             record.Status,
		IsMarinated:        record.IsMarinated,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

func toAlbumResponses(records []albumdomain.Album) []albumResponse {
	responses := make([]albumResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toAlbumResponse(&records[i]))
	}
	return responses
}

func toMemberResponse(member albumdomain.Member) memberResponse {
	return memberResponse{
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		PhotoURL:    member.PhotoURL,
		Role:        member.Role,
		PhotoCount:  member.PhotoCount,
		JoinedAt:    member.JoinedAt,
	}
}

func identityOf(user middleware.User) albumdomain.Identity {
	return albumdomain.Identity{
		ID:          user.ID,
		DisplayName: user.Name,
		PhotoURL:    user.AvatarURL,
	}
}
