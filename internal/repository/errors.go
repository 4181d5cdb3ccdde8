package repository

import "errors"

var (
	// ErrRecordNotFound indicates the germination record does not exist
	ErrRecordNotFound = errors.New("germination record not found")

	// ErrPhotoNotFound indicates the photo record does not exist
	ErrPhotoNotFound = errors.New("photo record not found")

	// ErrRepositoryUnavailable indicates the backing store cannot be reached
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
