package application

import (
	"errors"
	"fmt"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid catalog input")
	// ErrIDMismatch signals the payload id disagrees with the addressed resource.
	ErrIDMismatch = errors.New("ID mismatch")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCategoryName) ||
		errors.Is(err, domain.ErrCategoryNameTooLong) ||
		errors.Is(err, domain.ErrEmptyProductName) ||
		errors.Is(err, domain.ErrProductNameTooLong) ||
		errors.Is(err, domain.ErrEmptyDescription) ||
		errors.Is(err, domain.ErrNegativePrice) ||
		errors.Is(err, domain.ErrPriceScale) ||
		errors.Is(err, domain.ErrPriceTooLarge) ||
		errors.Is(err, domain.ErrNegativeStock) ||
		errors.Is(err, domain.ErrNegativeThreshold) ||
		errors.Is(err, domain.ErrInvalidCategoryID) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
