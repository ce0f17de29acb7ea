package domain

import "errors"

// ErrInvalidCatalog is returned when the pathway configuration is missing, empty or malformed.
var ErrInvalidCatalog = errors.New("invalid pathway catalog")

// ErrValidation is returned when a turn lacks a call identifier or messages.
var ErrValidation = errors.New("invalid request")

// ErrCallNotFound is returned by position stores for call identifiers they have never seen.
var ErrCallNotFound = errors.New("call not found")

// ErrPersistence wraps failures of the position store.
var ErrPersistence = errors.New("position store failure")

// ErrClassifier wraps failures of the condition classifier.
var ErrClassifier = errors.New("classifier failure")

// ErrUpstream wraps failures of the upstream chat completion service.
var ErrUpstream = errors.New("upstream completion failure")
