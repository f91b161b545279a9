package admin

import (
	"errors"

	"boxoffice/internal/reconcile"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrDiscountNotFound  = errors.New("discount code not found")
	ErrDiscountConflict  = errors.New("discount code already exists")
	ErrCapacityExceeded  = errors.New("ticket quantities exceed event capacity")
	ErrValidation        = reconcile.ErrValidation
	ErrInventoryConflict = reconcile.ErrInventoryConflict
)
