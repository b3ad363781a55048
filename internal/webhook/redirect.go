package webhook

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/signature"
)

type DestinationKind string

const (
	DestOrder       DestinationKind = "order"
	DestOrderFailed DestinationKind = "order_failed"
	DestResult      DestinationKind = "result"
)

// Destination is where the browser goes after the gateway redirect.
type Destination struct {
	Kind     DestinationKind
	OrderRef string
	Status   string
}

func (d Destination) Path() string {
	switch d.Kind {
	case DestOrder:
		return "/orders/" + url.PathEscape(d.OrderRef)
	case DestOrderFailed:
		return "/orders/" + url.PathEscape(d.OrderRef) + "?payment=failed"
	}
	q := url.Values{}
	q.Set("status", d.Status)
	if d.OrderRef != "" {
		q.Set("order", d.OrderRef)
	}
	return "/payment/result?" + q.Encode()
}

var genericFailure = Destination{Kind: DestResult, Status: "failed"}

// OrderLookup resolves a gateway order id to the merchant order id without
// writing anything.
type OrderLookup interface {
	MerchantIDForGatewayOrder(ctx context.Context, gatewayOrderID string) (string, error)
}

type Redirects struct {
	Lookup OrderLookup
	Secret []byte
}

// Resolve decides where the browser lands. The redirect travels through the
// user's browser, so its outcome is advisory and nothing is persisted here.
func (rd *Redirects) Resolve(ctx context.Context, q url.Values) Destination {
	l := logging.FromContext(ctx).With(zap.String("component", "webhook.redirect"))

	data := make(map[string]any, len(q))
	for k := range q {
		data[k] = q.Get(k)
	}
	ref := rd.orderRef(ctx, q)
	sig := strings.TrimSpace(q.Get("hmac"))

	if sig == "" {
		l.Info("redirect_without_signature", zap.String("order_ref", ref))
		if ref == "" {
			return genericFailure
		}
		return Destination{Kind: DestOrderFailed, OrderRef: ref}
	}

	if err := signature.Verify(rd.Secret, signature.RedirectFields, data, sig); err != nil {
		l.Warn("redirect_signature_rejected", zap.String("order_ref", ref))
		return genericFailure
	}

	success, okS := parseBool(q.Get("success"))
	pending, okP := parseBool(q.Get("pending"))
	if !okS || !okP {
		l.Warn("redirect_malformed_flags", zap.String("order_ref", ref))
		return genericFailure
	}

	outcome, err := DeriveOutcome(success, pending)
	if err != nil {
		l.Error("redirect_unmapped_outcome", zap.String("order_ref", ref), zap.Error(err))
		return genericFailure
	}

	switch outcome {
	case OutcomeSuccess:
		if ref == "" {
			return Destination{Kind: DestResult, Status: "success"}
		}
		return Destination{Kind: DestOrder, OrderRef: ref}
	case OutcomePending:
		return Destination{Kind: DestResult, Status: "pending", OrderRef: ref}
	default:
		if ref == "" {
			return genericFailure
		}
		return Destination{Kind: DestOrderFailed, OrderRef: ref}
	}
}

func (rd *Redirects) orderRef(ctx context.Context, q url.Values) string {
	if m := strings.TrimSpace(q.Get("merchant_order_id")); m != "" {
		return m
	}
	gw := strings.TrimSpace(q.Get("order"))
	if gw == "" || rd.Lookup == nil {
		return ""
	}
	m, err := rd.Lookup.MerchantIDForGatewayOrder(ctx, gw)
	if err != nil {
		return ""
	}
	return m
}
