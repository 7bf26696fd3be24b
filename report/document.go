package report

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finbook-app/finbook/internal/documents"
)

//go:embed templates/*.html
var templates embed.FS

var documentTmpl = template.Must(template.ParseFS(templates, "templates/document.html"))

type lineView struct {
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

type documentView struct {
	Title      string
	Number     string
	PartyLabel string
	PartyName  string
	Date       string
	DueDate    string
	Status     string
	Lines      []lineView
	Subtotal   string
	Tax        string
	Total      string
	Paid       string
	Due        string
	Notes      string
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// InvoiceHTML renders the invoice into the printable document template.
func InvoiceHTML(invoice documents.Invoice, customerName string) (string, error) {
	view := documentView{
		Title:      "Invoice",
		Number:     invoice.Number,
		PartyLabel: "Bill To",
		PartyName:  customerName,
		Date:       formatDate(invoice.Date),
		Status:     string(invoice.Status()),
		Subtotal:   money(invoice.Subtotal),
		Tax:        money(invoice.TaxAmount),
		Total:      money(invoice.TotalAmount),
		Paid:       money(invoice.PaidAmount),
		Due:        money(invoice.TotalAmount - invoice.PaidAmount),
		Notes:      invoice.Notes,
	}
	if invoice.DueDate != nil {
		view.DueDate = formatDate(*invoice.DueDate)
	}
	for _, line := range invoice.Lines {
		view.Lines = append(view.Lines, lineView{
			Description: line.Description,
			Quantity:    printer.Sprintf("%g", line.Quantity),
			UnitPrice:   money(line.UnitPrice),
			Total:       money(line.TotalAmount),
		})
	}
	return render(view)
}

// BillHTML renders the bill into the printable document template.
func BillHTML(bill documents.Bill, vendorName string) (string, error) {
	view := documentView{
		Title:      "Bill",
		Number:     bill.Number,
		PartyLabel: "Vendor",
		PartyName:  vendorName,
		Date:       formatDate(bill.Date),
		Status:     string(bill.Status()),
		Subtotal:   money(bill.Subtotal),
		Tax:        money(bill.TaxAmount),
		Total:      money(bill.TotalAmount),
		Paid:       money(bill.PaidAmount),
		Due:        money(bill.TotalAmount - bill.PaidAmount),
		Notes:      bill.Notes,
	}
	if bill.DueDate != nil {
		view.DueDate = formatDate(*bill.DueDate)
	}
	for _, line := range bill.Lines {
		view.Lines = append(view.Lines, lineView{
			Description: line.Description,
			Quantity:    printer.Sprintf("%g", line.Quantity),
			UnitPrice:   money(line.UnitPrice),
			Total:       money(line.TotalAmount),
		})
	}
	return render(view)
}

func render(view documentView) (string, error) {
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
