package application

import (
	"context"
	"errors"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
)

// ensureUniqueCategoryName fails when another category already uses name, ignoring case.
// exceptID lets an update keep its own name.
func (s *Service) ensureUniqueCategoryName(ctx context.Context, name string, exceptID int64) error {
	existing, err := s.categories.FindByName(ctx, name)
	if errors.Is(err, ports.ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Entity.ID == exceptID {
		return nil
	}
	return ports.ErrDuplicateCategoryName
}

func (s *Service) ensureCategoryExists(ctx context.Context, categoryID int64) error {
	_, err := s.categories.GetByID(ctx, categoryID)
	return err
}

func (s *Service) ensureNoProductsUnderCategory(ctx context.Context, categoryID int64) error {
	count, err := s.products.CountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ports.ErrCategoryHasProducts
	}
	return nil
}
