package apperrors

// Rejection codes carried alongside error messages so the gateway can relay
// a stable code to clients regardless of message wording.
const (
	CodeRoomNotFound = 1001 + iota
	CodeRoomNotLobby
	CodeSeatTaken
	CodeSeatNotOwned
	CodeStartConditions
	CodeRaceLost
	CodeNotYourTurn
	CodeWrongStep
	CodeStockEmpty
	CodePileTooShort
	CodeCardNotInHand
	CodeInvalidMeld
	CodeNoPileAnchor
	CodeMatchOver
	CodeNoIdentity
	CodeNotPlaying
	CodeNotInMatch
)

// GameError is a rejected-action error. It is shown to the user as a message
// and never treated as fatal.
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

var (
	ErrRoomNotFound    = &GameError{Code: CodeRoomNotFound, Message: "room does not exist"}
	ErrRoomNotLobby    = &GameError{Code: CodeRoomNotLobby, Message: "room is no longer in the lobby"}
	ErrSeatTaken       = &GameError{Code: CodeSeatTaken, Message: "seat is already taken"}
	ErrSeatNotOwned    = &GameError{Code: CodeSeatNotOwned, Message: "you do not own this seat"}
	ErrStartConditions = &GameError{Code: CodeStartConditions, Message: "start conditions are not met"}
	ErrRaceLost        = &GameError{Code: CodeRaceLost, Message: "another player acted first"}
	ErrNotYourTurn     = &GameError{Code: CodeNotYourTurn, Message: "it is not your turn"}
	ErrWrongStep       = &GameError{Code: CodeWrongStep, Message: "action not allowed in this step"}
	ErrStockEmpty      = &GameError{Code: CodeStockEmpty, Message: "the stock is empty"}
	ErrPileTooShort    = &GameError{Code: CodePileTooShort, Message: "the pile has no takeable card"}
	ErrCardNotInHand   = &GameError{Code: CodeCardNotInHand, Message: "card is not in your hand"}
	ErrInvalidMeld     = &GameError{Code: CodeInvalidMeld, Message: "cards do not form a set or a run"}
	ErrNoPileAnchor    = &GameError{Code: CodeNoPileAnchor, Message: "a meld needs at least one card taken from the pile"}
	ErrMatchOver       = &GameError{Code: CodeMatchOver, Message: "the match has ended"}
	ErrNoIdentity      = &GameError{Code: CodeNoIdentity, Message: "no identity resolved yet"}
	ErrNotPlaying      = &GameError{Code: CodeNotPlaying, Message: "the match has not started"}
	ErrNotInMatch      = &GameError{Code: CodeNotInMatch, Message: "you are not part of this match"}
)
