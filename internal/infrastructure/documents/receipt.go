// Package documents renders the receipt attached to notification emails.
package documents

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const receiptTemplate = `{{.CompanyName}}
{{if .CompanyAddress}}{{.CompanyAddress}}
{{end}}{{if .CompanyContact}}{{.CompanyContact}}
{{end}}
{{.Title}}
========================================
Reference:    {{.Reference}}
Date:         {{.PaidAt}}
Customer:     {{.CustomerName}}
Email:        {{.Email}}
{{if .Organization}}Organization: {{.Organization}}
Serial No.:   #{{.SerialNumber}}
Size:         {{.Size}}
{{if .CustomName}}Custom name:  {{.CustomName}}
{{end}}{{end}}----------------------------------------
{{range .Lines}}{{.Description}}
    {{.Amount}}
{{end}}----------------------------------------
Total paid:   {{.Total}}
{{if .CouponCode}}Coupon:       {{.CouponCode}}
{{end}}
Thank you for your patronage.
`

const dateLayout = "02 Jan 2006, 15:04 MST"

// Document is a rendered attachment.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Renderer struct {
	company config.CompanyConfig
	tmpl    *template.Template
	printer *message.Printer
}

func NewRenderer(company config.CompanyConfig) *Renderer {
	return &Renderer{
		company: company,
		tmpl:    template.Must(template.New("receipt").Parse(receiptTemplate)),
		printer: message.NewPrinter(language.English),
	}
}

type receiptLine struct {
	Description string
	Amount      string
}

type receiptView struct {
	CompanyName    string
	CompanyAddress string
	CompanyContact string
	Title          string
	Reference      string
	PaidAt         string
	CustomerName   string
	Email          string
	Organization   string
	SerialNumber   int
	Size           string
	CustomName     string
	CouponCode     string
	Lines          []receiptLine
	Total          string
}

// Receipt renders the plain-text receipt for a receipt task.
func (r *Renderer) Receipt(kind application.TaskKind, p application.ReceiptPayload) (*Document, error) {
	title := "PAYMENT RECEIPT"
	if kind == application.TaskEntryReceipt {
		title = "ORDER RECEIPT"
	}

	var contact []string
	for _, v := range []string{r.company.Phone, r.company.Email} {
		if v != "" {
			contact = append(contact, v)
		}
	}

	view := receiptView{
		CompanyName:    r.company.Name,
		CompanyAddress: r.company.Address,
		CompanyContact: strings.Join(contact, " | "),
		Title:          title,
		Reference:      p.Reference,
		PaidAt:         p.PaidAt.UTC().Format(dateLayout),
		CustomerName:   p.CustomerName,
		Email:          p.Email,
		Organization:   p.OrganizationName,
		SerialNumber:   p.SerialNumber,
		Size:           p.Size,
		CustomName:     p.CustomName,
		CouponCode:     p.CouponCode,
		Total:          r.FormatNaira(p.Amount),
	}
	for _, line := range p.Lines {
		view.Lines = append(view.Lines, receiptLine{
			Description: line.Description,
			Amount:      r.FormatNaira(line.Amount),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", p.Reference, err)
	}

	return &Document{
		Filename:    "receipt-" + p.Reference + ".txt",
		ContentType: "text/plain; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

// FormatNaira renders kobo as a grouped naira amount, e.g. "NGN 15,000.00".
func (r *Renderer) FormatNaira(amount domain.Kobo) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	naira := r.printer.Sprintf("%d", int64(amount)/100)
	return fmt.Sprintf("NGN %s%s.%02d", sign, naira, int64(amount)%100)
}
