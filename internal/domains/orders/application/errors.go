package application

import (
	"errors"
	"fmt"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated an order invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrInvalidIdempotencyKey rejects keys longer than MaxIdempotencyKeyLength.
	ErrInvalidIdempotencyKey = errors.New("idempotency key must be at most 255 characters")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var unknown *domain.UnknownProductError
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &unknown) || errors.As(err, &insufficient) ||
		errors.Is(err, domain.ErrEmptyOrder) ||
		errors.Is(err, domain.ErrEmptyUserName) ||
		errors.Is(err, domain.ErrUserNameTooLong) ||
		errors.Is(err, domain.ErrInvalidUserEmail) ||
		errors.Is(err, domain.ErrUserEmailTooLong) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrNegativeOrderTotal) ||
		errors.Is(err, domain.ErrQuantityTooLarge) ||
		errors.Is(err, domain.ErrOrderTotalTooLarge) ||
		errors.Is(err, ErrInvalidIdempotencyKey) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
