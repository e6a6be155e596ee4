package notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

// InvoiceRenderer produit la facture jointe à la confirmation.
type InvoiceRenderer interface {
	Enabled() bool
	TrackingURL(orderID string) string
	PDF(ctx context.Context, order *models.Order, user *models.User) ([]byte, error)
}

type Worker struct {
	queue       Queue
	users       repository.UserRepository
	orders      repository.OrderRepository
	mailer      Mailer
	invoices    InvoiceRenderer
	maxRetries  int
	pollTimeout time.Duration
}

func NewWorker(queue Queue, users repository.UserRepository, orders repository.OrderRepository,
	mailer Mailer, invoices InvoiceRenderer, maxRetries int) *Worker {
	return &Worker{
		queue:       queue,
		users:       users,
		orders:      orders,
		mailer:      mailer,
		invoices:    invoices,
		maxRetries:  maxRetries,
		pollTimeout: 5 * time.Second,
	}
}

// Run consomme la file jusqu'à l'annulation du contexte.
func (w *Worker) Run(ctx context.Context) {
	log.Println("🚀 Worker de notifications démarré")
	for {
		if ctx.Err() != nil {
			log.Println("🔌 Worker de notifications arrêté")
			return
		}

		job, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("❌ Lecture de la file de notifications: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		w.handle(ctx, job)
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	err := w.Process(ctx, job)
	if err == nil {
		return
	}

	if errors.Is(err, errPermanent) || job.Attempt+1 >= w.maxRetries {
		log.Printf("❌ Notification %s abandonnée (commande %s, tentative %d): %v", job.Kind, job.OrderID, job.Attempt+1, err)
		return
	}

	job.Attempt++
	log.Printf("⚠️ Notification %s en échec, nouvelle tentative %d/%d: %v", job.Kind, job.Attempt+1, w.maxRetries, err)
	if err := w.queue.Enqueue(ctx, job); err != nil {
		log.Printf("❌ Impossible de replanifier la notification %s: %v", job.ID, err)
	}
}

var errPermanent = errors.New("échec définitif")

// Process envoie l'email correspondant au job.
func (w *Worker) Process(ctx context.Context, job *Job) error {
	orderID, err := gocql.ParseUUID(job.OrderID)
	if err != nil {
		return fmt.Errorf("%w: identifiant de commande invalide %q", errPermanent, job.OrderID)
	}
	order, err := w.orders.Get(ctx, orderID)
	if err != nil {
		return w.classify(err)
	}
	user, err := w.users.GetByID(ctx, job.UserID)
	if err != nil {
		return w.classify(err)
	}

	email, err := w.compose(ctx, job, order, user)
	if err != nil {
		return err
	}
	if err := w.mailer.Send(ctx, email); err != nil {
		return err
	}
	log.Printf("📧 Email %s envoyé pour la commande %s → %s", job.Kind, job.OrderID, user.Email)
	return nil
}

func (w *Worker) compose(ctx context.Context, job *Job, order *models.Order, user *models.User) (*Email, error) {
	data := emailData{Order: order, User: user, OrderURL: w.invoices.TrackingURL(order.ID.String())}

	switch job.Kind {
	case KindOrderConfirmation:
		html, err := render(confirmationTmpl, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errPermanent, err)
		}
		email := &Email{To: user.Email, Subject: confirmationSubject, HTML: html}
		if w.invoices.Enabled() {
			pdf, err := w.invoices.PDF(ctx, order, user)
			if err != nil {
				log.Printf("⚠️ Facture PDF non générée pour %s: %v", order.ID, err)
			} else {
				email.Attachments = append(email.Attachments, Attachment{Name: "facture_" + order.ID.String()[:8] + ".pdf", Data: pdf})
			}
		}
		return email, nil

	case KindOrderStatusUpdate:
		status := models.OrderStatus(job.NewStatus)
		if status == "" {
			status = order.Status
		}
		data.Style = styleFor(status)
		html, err := render(statusTmpl, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errPermanent, err)
		}
		return &Email{To: user.Email, Subject: data.Style.Subject, HTML: html}, nil

	default:
		return nil, fmt.Errorf("%w: type de notification inconnu %q", errPermanent, job.Kind)
	}
}

// classify : une entité disparue ne reviendra pas, inutile de réessayer.
func (w *Worker) classify(err error) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	return err
}
