package room

import "errors"

// Every engine operation either fully commits or returns exactly one of
// these. The transport maps them to wire error codes with errors.Is.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrPlayerNotFound      = errors.New("player not in room")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrAlreadyFolded       = errors.New("player has already folded")
	ErrAlreadyLooked       = errors.New("player has already looked at their cards")
	ErrNotHost             = errors.New("only the host can deal")
	ErrRoomFull            = errors.New("room is full")
	ErrAlreadySeated       = errors.New("already seated in this room")
	ErrGameNotInProgress   = errors.New("game is not in progress")
	ErrGameInProgress      = errors.New("game is already in progress")
	ErrInsufficientPlayers = errors.New("at least 2 players required")
	ErrBetBelowMinimum     = errors.New("bet below table minimum")
	ErrBetBelowCurrentMax  = errors.New("bet below current maximum")
	ErrInsufficientChips   = errors.New("insufficient chips")
	ErrInvalidGameMode     = errors.New("game mode must be 3 or 5 cards")
)
