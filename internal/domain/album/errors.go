package album

import "errors"

var (
	ErrAlbumNotFound        = errors.New("album not found")
	ErrInvalidCode          = errors.New("invalid album code")
	ErrNameRequired         = errors.New("album name is required")
	ErrInvalidDates         = errors.New("marination end must be after event date")
	ErrAlreadyMember        = errors.New("already a member of this album")
	ErrMemberNotFound       = errors.New("member not found")
	ErrNotCreator           = errors.New("only the album creator may do this")
	ErrCreatorCannotLeave   = errors.New("album creator cannot leave")
	ErrCodeTaken            = errors.New("album code already taken")
	ErrCodeGenerationFailed = errors.New("album code generation failed")
)
