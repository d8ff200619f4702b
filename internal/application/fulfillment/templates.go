package fulfillment

const receiptTemplate = `<div class="receipt">
  <header>
    <h1>{{.StoreName}}</h1>
    <p>Receipt for order <strong>{{.Order.ID}}</strong></p>
    <p>{{formatDate .Order.CreatedAt}}</p>
  </header>
  <section class="customer">
    {{if .Order.CustomerName}}<p>{{title .Order.CustomerName}}</p>{{end}}
    {{if .Order.CustomerEmail}}<p>{{.Order.CustomerEmail}}</p>{{end}}
    {{with .Order.ShippingAddress}}{{if not .IsEmpty}}
    <p>{{.Line1}}<br>{{.City}} {{.PostalCode}}<br>{{.Country}}</p>
    {{end}}{{end}}
  </section>
  <table class="items">
    <thead>
      <tr><th>Item</th><th>Qty</th><th>Unit price</th><th>Subtotal</th></tr>
    </thead>
    <tbody>
      {{range .Order.Items}}
      <tr>
        <td>{{.ProductName}}</td>
        <td>{{.Quantity}}</td>
        <td>{{money .Price}}</td>
        <td>{{money .Subtotal}}</td>
      </tr>
      {{end}}
    </tbody>
    <tfoot>
      <tr><td colspan="3">Total</td><td>{{money .Order.Total}}</td></tr>
    </tfoot>
  </table>
  <p class="status">Status: {{.Order.Status}}</p>
</div>`

const receiptStyle = `
body { font-family: Helvetica, Arial, sans-serif; color: #222; }
.receipt header h1 { margin: 0 0 4mm; }
table.items { width: 100%; border-collapse: collapse; margin-top: 6mm; }
table.items th, table.items td { border-bottom: 1px solid #ddd; padding: 2mm; text-align: left; }
table.items tfoot td { font-weight: bold; }
`

const emailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #222; background: #f6f6f6; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #fff; padding: 24px; border-radius: 6px;">
    <h2 style="margin-top: 0;">{{.StoreName}}</h2>
    <p>Hi {{if .Order.CustomerName}}{{title .Order.CustomerName}}{{else}}there{{end}},</p>
    <p>Thank you for your order. Here is your summary.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Order.Items}}
      <tr>
        <td style="padding: 6px 0;">{{.ProductName}} &times; {{.Quantity}}</td>
        <td style="padding: 6px 0; text-align: right;">{{money .Subtotal}}</td>
      </tr>
      {{end}}
      <tr>
        <td style="padding: 6px 0; border-top: 1px solid #ddd;"><strong>Total</strong></td>
        <td style="padding: 6px 0; border-top: 1px solid #ddd; text-align: right;"><strong>{{money .Order.Total}}</strong></td>
      </tr>
    </table>
    <p style="color: #666; font-size: 12px;">Order reference {{.Order.ID}}{{if .HasAttachment}}. Your receipt is attached.{{end}}</p>
    {{if .SupportEmail}}<p style="color: #666; font-size: 12px;">Questions? Contact {{.SupportEmail}}.</p>{{end}}
  </div>
</body>
</html>`
