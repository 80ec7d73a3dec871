package domain

import "errors"

var (
	// ErrNotFound signals a missing article.
	ErrNotFound = errors.New("article not found")
	// ErrSlugTaken signals a slug collision on create or update.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrInvalidArticle signals a rejected article payload.
	ErrInvalidArticle = errors.New("invalid article")
	// ErrStoreUnavailable signals a transport or HTTP failure talking to the
	// search index. Callers at the boundary degrade to empty results instead
	// of propagating it.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrIndexNotReady signals a missing index, resolved by EnsureIndex.
	ErrIndexNotReady = errors.New("search index not ready")
)
