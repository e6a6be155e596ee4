package notifications

import (
	"bytes"
	"html/template"

	"ecommerce_back_end/internal/invoice"
	"ecommerce_back_end/internal/models"
)

type statusStyle struct {
	Subject string
	Message string
	Icon    string
	Color   template.CSS
}

var statusStyles = map[models.OrderStatus]statusStyle{
	models.StatusPending: {
		"📋 Commande enregistrée", "Votre commande est enregistrée et en attente de traitement.", "📋", "#6b7280",
	},
	models.StatusProcessing: {
		"⚙️ Commande en préparation", "Nous préparons votre commande avec soin.", "⚙️", "#f59e0b",
	},
	models.StatusShipped: {
		"📦 Votre commande a été expédiée", "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous.", "📦", "#3b82f6",
	},
	models.StatusDelivered: {
		"🎉 Votre commande a été livrée", "Votre commande a été livrée avec succès. Nous espérons que vous en êtes satisfait !", "🎉", "#10b981",
	},
	models.StatusCancelled: {
		"❌ Commande annulée", "Votre commande a été annulée. Si vous avez des questions, n'hésitez pas à nous contacter.", "❌", "#ef4444",
	},
}

func styleFor(status models.OrderStatus) statusStyle {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return statusStyle{"📋 Mise à jour de votre commande", "Le statut de votre commande a été mis à jour.", "📋", "#667eea"}
}

const confirmationSubject = "✅ Confirmation de commande"

var (
	confirmationTmpl = template.Must(template.New("confirmation").Funcs(invoice.Funcs).Parse(layoutHTML + confirmationHTML))
	statusTmpl       = template.Must(template.New("status").Funcs(invoice.Funcs).Parse(layoutHTML + statusHTML))
)

type emailData struct {
	Order    *models.Order
	User     *models.User
	Style    statusStyle
	OrderURL string
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const layoutHTML = `{{define "header"}}<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
<table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
{{end}}
{{define "items"}}
<table role="presentation" style="width: 100%; border-collapse: collapse; background-color: #f8f9fa; border-radius: 8px;">
    <tr><th align="left">Produit</th><th align="right">Qté</th><th align="right">Prix</th><th align="right">Total</th></tr>
    {{range .Order.Items}}
    <tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{money .UnitPrice}}</td><td align="right">{{money .Subtotal}}</td></tr>
    {{end}}
    {{if .Order.CouponCode}}<tr><td colspan="3" align="right">Remise ({{.Order.CouponCode}})</td><td align="right">-{{money .Order.Discount}}</td></tr>{{end}}
    <tr><td colspan="3" align="right"><strong>Total</strong></td><td align="right"><strong>{{money .Order.TotalAmount}}</strong></td></tr>
</table>
{{end}}
{{define "footer"}}
<tr><td style="padding: 30px; text-align: center;">
    <a href="{{.OrderURL}}" style="display: inline-block; padding: 14px 32px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 6px;">Voir ma commande</a>
    <p style="color: #999999; font-size: 12px;">Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
</td></tr>
</table>
</body>
</html>{{end}}`

const confirmationHTML = `{{template "header" .}}
<tr><td style="background: linear-gradient(135deg, #10b981 0%, #059669 100%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
    <h1 style="margin: 0; color: #ffffff;">✅ Commande confirmée !</h1>
    <p style="color: #ffffff;">Merci pour votre achat{{if .User.Name}}, {{.User.Name}}{{end}}</p>
</td></tr>
<tr><td style="padding: 30px;">
    <p>Commande #{{short .Order.ID.String}} du {{date .Order.CreatedAt}}</p>
    {{template "items" .}}
    <p>Livraison : {{.Order.ShippingAddress.Street}}, {{.Order.ShippingAddress.PostalCode}} {{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.Country}}</p>
</td></tr>
{{template "footer" .}}`

const statusHTML = `{{template "header" .}}
<tr><td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
    <h1 style="margin: 0; color: #ffffff;">{{.Style.Icon}} Mise à jour de votre commande</h1>
</td></tr>
<tr><td style="padding: 30px; text-align: center;">
    <div style="display: inline-block; padding: 12px 24px; background-color: {{.Style.Color}}; color: #ffffff; border-radius: 25px;">{{.Order.Status}}</div>
    <p>{{.Style.Message}}</p>
    <p>Commande #{{short .Order.ID.String}}</p>
    {{template "items" .}}
</td></tr>
{{template "footer" .}}`
