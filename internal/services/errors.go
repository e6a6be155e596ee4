package services

import (
	"errors"
	"fmt"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

var errImagesDisabled = errors.New("stockage d'images non configuré")

func tooLarge(field string) error {
	return apperr.Validation(field, fmt.Sprintf("La valeur ne peut pas dépasser %d", models.MaxQuantity))
}

func checkStock(field string, stock int) error {
	if stock < 0 {
		return apperr.Validation(field, "Le stock ne peut pas être négatif")
	}
	if stock > models.MaxQuantity {
		return tooLarge(field)
	}
	return nil
}
