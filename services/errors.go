package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyResolved     = errors.New("verification already resolved")
	ErrAlreadyCompleted    = errors.New("withdrawal already completed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInvalidReferral     = errors.New("invalid referral")
	ErrQuotaExceeded       = errors.New("task quota exceeded")
	ErrTaskInProgress      = errors.New("task already in progress")
	ErrTaskDone            = errors.New("task already completed")
	ErrInvalidState        = errors.New("invalid assignment state")
)

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
