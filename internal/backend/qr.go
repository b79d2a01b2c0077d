package backend

import "context"

func (c *Client) GetQR(ctx context.Context, token string) (*QR, error) {
	var out QR
	if err := c.getJSON(ctx, "qr.get", "/qr/"+esc(token), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QRImage(ctx context.Context, token string) (*Download, error) {
	return c.download(ctx, "qr.image", "/qr/"+esc(token)+"/image")
}
