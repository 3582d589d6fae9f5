package core

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrInvalidNoteType      = errors.New("invalid note type")
	ErrEmptyReply           = errors.New("empty completion")
)
