package misoca

import (
	"context"
	"net/http"
	"net/url"
)

// GetInvoicePDF downloads the rendered PDF of invoiceID.
func (c *Client) GetInvoicePDF(ctx context.Context, accessToken string, invoiceID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v3/invoice/"+url.PathEscape(invoiceID)+"/pdf", accessToken, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")
	return c.send(req)
}
