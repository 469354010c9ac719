// internal/domain/payment/stripe.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

// webhookTolerance bounds how old a signed webhook timestamp may be
const webhookTolerance = 5 * time.Minute

// StripeProvider implements Provider against the Stripe REST API
type StripeProvider struct {
	secretKey     string
	webhookSecret string
	currency      string
	baseURL       string
	httpClient    *http.Client

	// now is swappable for signature tolerance tests
	now func() time.Time
}

// NewStripeProvider creates a Stripe-backed payment provider
func NewStripeProvider(cfg *config.Config) *StripeProvider {
	return &StripeProvider{
		secretKey:     cfg.Stripe.SecretKey,
		webhookSecret: cfg.Stripe.WebhookSecret,
		currency:      cfg.Stripe.Currency,
		baseURL:       "https://api.stripe.com/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	PaymentIntent string `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

// CreateCheckoutSession creates a hosted checkout session with the given
// line items and the order id in the session metadata.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(params.OrderID), 10))

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", p.currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	var session stripeSession
	if err := p.call(ctx, http.MethodPost, "/checkout/sessions", form, &session); err != nil {
		return nil, &ProviderError{Op: "create checkout session", Err: err}
	}

	return &CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// RetrieveSession fetches the current status of a checkout session
func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	var session stripeSession
	endpoint := "/checkout/sessions/" + url.PathEscape(sessionID)
	if err := p.call(ctx, http.MethodGet, endpoint, nil, &session); err != nil {
		return nil, &ProviderError{Op: "retrieve session", Err: err}
	}

	return &SessionStatus{
		ID:            session.ID,
		PaymentStatus: session.PaymentStatus,
		PaymentIntent: session.PaymentIntent,
		OrderID:       orderIDFromMetadata(session.Metadata),
	}, nil
}

// VerifyWebhookSignature authenticates a webhook delivery against the
// shared webhook secret and decodes the event. It fails closed: any parse
// or signature problem yields ErrBadSignature and the payload is never
// processed.
func (p *StripeProvider) VerifyWebhookSignature(payload []byte, sigHeader string) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, ErrBadSignature
	}

	if p.now().Sub(time.Unix(timestamp, 0)) > webhookTolerance {
		return nil, ErrBadSignature
	}

	expected := computeSignature(p.webhookSecret, timestamp, payload)
	verified := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, ErrBadSignature
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrBadSignature
	}

	return &Event{
		ID:            event.ID,
		Type:          event.Type,
		OrderID:       orderIDFromMetadata(event.Data.Object.Metadata),
		PaymentIntent: event.Data.Object.PaymentIntent,
	}, nil
}

// call makes a form-encoded request to the Stripe API
func (p *StripeProvider) call(ctx context.Context, method, endpoint string, form url.Values, dest interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(p.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]"
func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("missing timestamp or signature")
	}
	return timestamp, signatures, nil
}

// computeSignature is HMAC-SHA256 over "<timestamp>.<payload>"
func computeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func orderIDFromMetadata(metadata map[string]string) uint {
	raw, ok := metadata["order_id"]
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
