package repository

import "errors"

// ErrAlreadyExists is returned when a unique key is already taken.
var ErrAlreadyExists = errors.New("record already exists")
