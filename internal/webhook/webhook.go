package webhook

import (
	svix "github.com/svix/svix-webhooks/go"
)

// DefaultEndpoint is where new-customer events are posted.
const DefaultEndpoint = "/webhooks/customers"

type Webhook struct {
	Handler  Handler
	Endpoint string
	svix     *svix.Webhook
}

// NewCustomerWebhook serves handler at endpoint. Requests are not verified
// until SetupSvix is called.
func NewCustomerWebhook(handler Handler, endpoint string) *Webhook {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Webhook{
		Handler:  handler,
		Endpoint: endpoint,
	}
}

// SetupSvix enables signature verification of incoming requests.
func (wh *Webhook) SetupSvix(s *svix.Webhook) {
	wh.svix = s
}
