package utils

import (
	"errors"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrDownloadFailed   = errors.New("download failed")
	ErrLockUnavailable  = errors.New("lock unavailable")
	ErrResourceNotFound = errors.New("resource not found")
)
