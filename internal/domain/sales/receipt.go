package sales

import (
	"fmt"
	"html/template"
	"strings"
)

const receiptTemplate = `<div class="receipt">
  <p class="receipt-no">Receipt {{.Sale.ID}}</p>
  <p class="sold-at">{{.Sale.CreatedAt.Format "02 Jan 2006 15:04"}}</p>
  {{- if .Sale.CustomerName}}
  <p class="customer">{{.Sale.CustomerName}}{{if .Sale.CustomerPhone}} ({{.Sale.CustomerPhone}}){{end}}</p>
  {{- end}}
  <table>
    <tr><th>Item</th><th>Qty</th><th>Unit</th><th>Disc%</th><th>Total</th></tr>
    {{- range .Sale.Items}}
    <tr>
      <td>{{.ItemParticulars}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.UnitPrice.StringFixed 2}}</td>
      <td>{{.DiscountPct.StringFixed 1}}</td>
      <td>{{.LineTotal.StringFixed 2}}</td>
    </tr>
    {{- end}}
  </table>
  {{- if not .Sale.OverallDiscountPct.IsZero}}
  <p class="discount">Overall discount: {{.Sale.OverallDiscountPct.StringFixed 1}}%</p>
  {{- end}}
  <p class="grand-total">Grand total: {{.Sale.GrandTotal.StringFixed 2}}</p>
  <p class="paid">Paid: {{.Sale.PaidAmount.StringFixed 2}}</p>
  {{- if .Sale.BalanceDue.IsPositive}}
  <p class="balance">Balance due: {{.Sale.BalanceDue.StringFixed 2}}</p>
  {{- end}}
  <p class="sold-by">Served by {{.Sale.SoldBy}}</p>
</div>
`

// ReceiptRenderer renders the printable projection of a sale. The template
// escapes customer-entered text, so names and particulars are safe to embed
// in the portal's print view.
type ReceiptRenderer struct {
	tmpl *template.Template
}

func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{
		tmpl: template.Must(template.New("receipt").Parse(receiptTemplate)),
	}
}

// Render produces the receipt body for a sale.
func (r *ReceiptRenderer) Render(sale Sale) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, struct{ Sale Sale }{Sale: sale}); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}
