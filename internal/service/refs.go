package service

import (
	"errors"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryKindMismatch = errors.New("category kind does not match the entry")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrSupplierNotFound     = errors.New("supplier not found")
)

// refs checks that category, customer and supplier ids belong to the
// caller's company before they are stored on a row
type refs struct {
	categories repository.CategoryRepository
	customers  repository.PartyRepository
	suppliers  repository.PartyRepository
}

func (r refs) check(companyID uuid.UUID, kind model.TransactionKind, categoryID, customerID, supplierID *uuid.UUID) error {
	if categoryID != nil {
		cat, err := r.categories.FindByID(companyID, *categoryID)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if cat.Kind != kind {
			return ErrCategoryKindMismatch
		}
	}
	if customerID != nil {
		if _, err := r.customers.FindByID(companyID, *customerID); err != nil {
			return notFound(err, ErrCustomerNotFound)
		}
	}
	if supplierID != nil {
		if _, err := r.suppliers.FindByID(companyID, *supplierID); err != nil {
			return notFound(err, ErrSupplierNotFound)
		}
	}
	return nil
}
