package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifie une famille d'erreur stable, exposée au client sous forme de code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindInsufficientStock
	KindEmptyCart
	KindInvalidCoupon
	KindInvalidStatus
	KindUnauthorized
	KindForbidden
	KindStoreUnavailable
)

var kindCodes = map[Kind]string{
	KindInternal:          "INTERNAL",
	KindNotFound:          "NOT_FOUND",
	KindValidation:        "VALIDATION_FAILED",
	KindConflict:          "CONFLICT",
	KindInsufficientStock: "INSUFFICIENT_STOCK",
	KindEmptyCart:         "EMPTY_CART",
	KindInvalidCoupon:     "INVALID_COUPON",
	KindInvalidStatus:     "INVALID_STATUS",
	KindUnauthorized:      "UNAUTHORIZED",
	KindForbidden:         "FORBIDDEN",
	KindStoreUnavailable:  "STORE_UNAVAILABLE",
}

func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "INTERNAL"
}

func (k Kind) String() string { return k.Code() }

// HTTPStatus traduit un Kind en statut HTTP.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInsufficientStock, KindEmptyCart, KindInvalidCoupon, KindInvalidStatus:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error porte le Kind, le champ fautif éventuel et l'erreur d'origine.
type Error struct {
	Kind    Kind
	Field   string
	Product string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Code()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf remonte la chaîne d'erreurs; toute erreur non typée est interne.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is indique si err (ou une erreur enveloppée) est du Kind donné.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message retourne le message public d'une erreur.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Erreur interne du serveur"
}

// Field retourne le champ en cause pour une erreur de validation.
func Field(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " introuvable"}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InsufficientStock(product string) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Product: product,
		Message: fmt.Sprintf("Stock insuffisant pour le produit %s", product),
	}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "Le panier est vide"}
}

func InvalidCoupon() *Error {
	return &Error{Kind: KindInvalidCoupon, Message: "Coupon invalide ou expiré"}
}

func InvalidStatus(status string) *Error {
	return &Error{Kind: KindInvalidStatus, Field: "status", Message: fmt.Sprintf("Statut invalide: %s", status)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func StoreUnavailable(op string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "Base de données indisponible (" + op + ")", Err: err}
}

func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "Erreur interne (" + op + ")", Err: err}
}
