// Package invoice produit la facture d'une commande : HTML, QR code de suivi
// et PDF imprimé par Chrome headless.
package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"ecommerce_back_end/internal/models"
)

type Renderer struct {
	frontendURL string
	pdfEnabled  bool
	timeout     time.Duration
	tmpl        *template.Template
}

func NewRenderer(frontendURL string, pdfEnabled bool) *Renderer {
	return &Renderer{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		pdfEnabled:  pdfEnabled,
		timeout:     30 * time.Second,
		tmpl:        template.Must(template.New("invoice").Funcs(Funcs).Parse(invoiceHTML)),
	}
}

// Funcs expose le formatage monétaire aux templates HTML.
var Funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) + " €" },
	"short": func(s string) string {
		if len(s) > 8 {
			return s[:8]
		}
		return s
	},
	"date": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
}

func (r *Renderer) Enabled() bool { return r.pdfEnabled }

// TrackingURL pointe vers la page de suivi de la commande sur le front.
func (r *Renderer) TrackingURL(orderID string) string {
	return fmt.Sprintf("%s/orders/%s", r.frontendURL, orderID)
}

// QRCode encode l'URL de suivi en PNG.
func (r *Renderer) QRCode(orderID string) ([]byte, error) {
	return qrcode.Encode(r.TrackingURL(orderID), qrcode.Medium, 256)
}

type invoiceData struct {
	Order       *models.Order
	User        *models.User
	TrackingURL string
	QRCode      template.URL
}

func (r *Renderer) HTML(order *models.Order, user *models.User) (string, error) {
	png, err := r.QRCode(order.ID.String())
	if err != nil {
		return "", fmt.Errorf("erreur génération QR: %w", err)
	}

	data := invoiceData{
		Order:       order,
		User:        user,
		TrackingURL: r.TrackingURL(order.ID.String()),
		QRCode:      template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PDF charge la facture dans un onglet vierge puis l'imprime.
func (r *Renderer) PDF(ctx context.Context, order *models.Order, user *models.User) ([]byte, error) {
	html, err := r.HTML(order, user)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("no-sandbox", true))...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	// timeout pour éviter de bloquer le worker
	taskCtx, cancel := context.WithTimeout(taskCtx, r.timeout)
	defer cancel()

	var pdf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("impression PDF: %w", err)
	}
	return pdf, nil
}

const invoiceHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <title>Facture {{short .Order.ID.String}}</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #333; margin: 40px; }
        h1 { color: #667eea; margin-bottom: 0; }
        table { width: 100%; border-collapse: collapse; margin-top: 24px; }
        th, td { padding: 8px; border-bottom: 1px solid #eee; text-align: left; }
        td.num, th.num { text-align: right; }
        .totals td { border: none; }
        .qr { float: right; text-align: center; font-size: 12px; color: #999; }
    </style>
</head>
<body>
    <div class="qr">
        <img src="{{.QRCode}}" width="128" height="128" alt="QR de suivi"><br>
        Suivre ma commande
    </div>
    <h1>Facture</h1>
    <p>Commande #{{short .Order.ID.String}} du {{date .Order.CreatedAt}}</p>
    <p>
        <strong>{{if .User.Name}}{{.User.Name}}{{else}}{{.User.Email}}{{end}}</strong><br>
        {{with .Order.ShippingAddress}}{{if .FullName}}{{.FullName}}<br>{{end}}{{.Street}}<br>{{.PostalCode}} {{.City}}<br>{{.Country}}{{end}}
    </p>
    <table>
        <thead>
            <tr><th>Produit</th><th class="num">Quantité</th><th class="num">Prix unitaire</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
        {{range .Order.Items}}
            <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .Subtotal}}</td></tr>
        {{end}}
        </tbody>
    </table>
    <table class="totals">
        <tr><td class="num">Sous-total</td><td class="num">{{money .Order.Subtotal}}</td></tr>
        {{if .Order.CouponCode}}<tr><td class="num">Remise ({{.Order.CouponCode}})</td><td class="num">-{{money .Order.Discount}}</td></tr>{{end}}
        <tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Order.TotalAmount}}</strong></td></tr>
    </table>
    <p style="font-size: 12px; color: #999;">Suivi : {{.TrackingURL}}</p>
</body>
</html>`
