package order

import "errors"

var (
	ErrNotFound = errors.New("order not found")
	ErrCanceled = errors.New("order is canceled")
)

type ValidationError string

func (e ValidationError) Error() string { return string(e) }
