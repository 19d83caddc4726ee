package domain

import "errors"

var ErrInvalidSession = errors.New("invalid_session")
