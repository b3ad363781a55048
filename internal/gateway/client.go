// Package gateway talks to the payment gateway's intention API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
)

type Client struct {
	baseURL     string
	secretKey   string
	publicKey   string
	checkoutURL string
	httpClient  *http.Client
}

func NewClient(baseURL, secretKey, publicKey, checkoutURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		publicKey:   publicKey,
		checkoutURL: checkoutURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type BillingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type IntentionRequest struct {
	Amount          decimal.Decimal
	Currency        string
	MerchantOrderID string
	IntegrationIDs  []int
	Billing         BillingData
}

type Intention struct {
	ID             string
	GatewayOrderID string
	ClientSecret   string
	RedirectURL    string
}

type intentionBody struct {
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
	PaymentMethods  []int       `json:"payment_methods"`
	SpecialRef      string      `json:"special_reference"`
	BillingData     BillingData `json:"billing_data"`
	MerchantOrderID string      `json:"merchant_order_id"`
}

type intentionResponse struct {
	ID               json.Number `json:"id"`
	ClientSecret     string      `json:"client_secret"`
	IntentionOrderID json.Number `json:"intention_order_id"`
}

// AmountCents converts a decimal amount to the gateway's minor units.
func AmountCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (c *Client) CreateIntention(ctx context.Context, in IntentionRequest) (*Intention, error) {
	body, err := json.Marshal(intentionBody{
		Amount:          AmountCents(in.Amount),
		Currency:        in.Currency,
		PaymentMethods:  in.IntegrationIDs,
		SpecialRef:      in.MerchantOrderID,
		BillingData:     in.Billing,
		MerchantOrderID: in.MerchantOrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode intention: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/intention/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.External("payment gateway unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.External("payment gateway returned status %d", resp.StatusCode)
	}

	var out intentionResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, apperr.External("payment gateway response malformed: %v", err)
	}
	if out.ClientSecret == "" || out.IntentionOrderID == "" {
		return nil, apperr.External("payment gateway response missing client_secret or order id")
	}

	return &Intention{
		ID:             out.ID.String(),
		GatewayOrderID: out.IntentionOrderID.String(),
		ClientSecret:   out.ClientSecret,
		RedirectURL:    c.redirectURL(out.ClientSecret),
	}, nil
}

func (c *Client) redirectURL(clientSecret string) string {
	q := url.Values{}
	q.Set("publicKey", c.publicKey)
	q.Set("clientSecret", clientSecret)
	return c.checkoutURL + "?" + q.Encode()
}
