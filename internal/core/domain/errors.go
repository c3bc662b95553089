package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrQuestionNotFound    = errors.New("question not found")
	ErrNoSelectionMade     = errors.New("you didn't select a choice")
	ErrChoiceNotFound      = errors.New("choice does not belong to this question")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("a user with that username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRefreshTokenInvalid = errors.New("refresh token is invalid, revoked or expired")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
