// Package businessflow contains the core business logic and use cases of the loyalty platform
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Identity errors
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("operation requires a higher role")

	// Market store errors
	ErrMarketStoreNotFound = errors.New("market store not found")

	// Ticket errors
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketNotPending     = errors.New("ticket is not pending")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFileTooLarge         = errors.New("file exceeds the size limit")
	ErrEmptyFile            = errors.New("uploaded file is empty")

	// Purchase history errors
	ErrPurchaseConflict = errors.New("purchase record already exists for ticket")

	// Gamification errors
	ErrProfileNotFound        = errors.New("gamification profile not found")
	ErrRewardNotFound         = errors.New("reward not found")
	ErrRewardInactive         = errors.New("reward is not active")
	ErrRewardOutOfStock       = errors.New("reward has no remaining redemptions")
	ErrInsufficientExperience = errors.New("insufficient experience points")
	ErrCodeNotFound           = errors.New("redemption code not found")
	ErrCodeAlreadyUsed        = errors.New("redemption code already used")
	ErrCodeExpired            = errors.New("redemption code has expired")
	ErrSpecialRewardNotFound  = errors.New("special reward not found")
	ErrSpecialRewardNoAccess  = errors.New("special reward is not available to this user")
	ErrNotificationNotFound   = errors.New("notification not found")

	// CRM errors
	ErrSegmentNotFound    = errors.New("segment not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCampaignInactive   = errors.New("campaign is not active")
	ErrNoSegmentsLinked   = errors.New("campaign has no active segments")
	ErrInvalidChannel     = errors.New("invalid delivery channel")
	ErrInvalidStatus      = errors.New("invalid notification status")
	ErrNoSubscription     = errors.New("no active subscription for channel")
	ErrSubscriberNotFound = errors.New("subscription not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether the error names an absent resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrMarketStoreNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrSpecialRewardNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, ErrSegmentNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrSubscriberNotFound)
}

// IsConflict reports whether the error names a uniqueness violation
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists) ||
		errors.Is(err, ErrPurchaseConflict) ||
		errors.Is(err, ErrCodeAlreadyUsed)
}

// IsValidation reports whether the error names a rejected input or an
// operation the current state does not allow
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrUnsupportedExtension) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrInvalidChannel) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrTicketNotPending) ||
		errors.Is(err, ErrRewardInactive) ||
		errors.Is(err, ErrRewardOutOfStock) ||
		errors.Is(err, ErrInsufficientExperience) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrCampaignInactive) ||
		errors.Is(err, ErrNoSegmentsLinked) ||
		errors.Is(err, ErrNoSubscription)
}

// IsUnauthorized reports whether the error names a failed authentication
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrAccountInactive)
}

// IsForbidden reports whether the error names an authorization failure
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSpecialRewardNoAccess)
}
