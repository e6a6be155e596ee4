// Package notifications envoie les emails de commande hors du chemin de la
// requête : le workflow publie un Job, un Worker le consomme.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindOrderStatusUpdate Kind = "order_status_update"
)

var ErrQueueFull = errors.New("file de notifications pleine")

type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id"`
	OrderID    string    `json:"order_id"`
	NewStatus  string    `json:"new_status,omitempty"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewJob(kind Kind, userID, orderID, newStatus string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		UserID:     userID,
		OrderID:    orderID,
		NewStatus:  newStatus,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Dispatcher est le côté producteur : il ne doit jamais bloquer la requête.
type Dispatcher interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Queue ajoute la consommation pour le Worker.
type Queue interface {
	Dispatcher
	// Dequeue attend au plus timeout; (nil, nil) si rien n'est arrivé.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
}
