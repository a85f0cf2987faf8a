package repository

import "github.com/okian/kartcup/internal/domain/model"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = model.ErrNotFound
	ErrVersionConflict = model.ErrVersionConflict
	ErrMatchExists     = model.ErrMatchExists
)
