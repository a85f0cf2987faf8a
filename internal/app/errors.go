package service

import "errors"

// ErrTargetAlreadyPlayed is returned by an advancement whose target match
// already has a result with another player in the slot.
var ErrTargetAlreadyPlayed = errors.New("advancement target already played")
