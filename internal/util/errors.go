package util

import "errors"

var (
	ErrNotFound           = errors.New("requirement not found")
	ErrInvalidVector      = errors.New("invalid embedding vector")
	ErrEmbeddingProvider  = errors.New("embedding provider failed")
	ErrAllProvidersFailed = errors.New("all providers failed to generate a response")
)
