package bracket

import "errors"

var (
	ErrUnsupportedSize = errors.New("unsupported bracket size")
	ErrInvalidTopology = errors.New("invalid bracket topology")
	ErrInvalidSeeds    = errors.New("invalid seeds")
)
