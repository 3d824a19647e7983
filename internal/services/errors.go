package services

import (
	"errors"

	"github.com/campus-assoc/backend/internal/repositories"
)

var (
	ErrNotFound           = repositories.ErrNotFound
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrFiscalYearClosed   = errors.New("fiscal year is closed")
)
