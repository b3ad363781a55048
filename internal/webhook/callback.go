package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
)

// Callback is the canonical form of a processed callback, whichever of the
// two payload shapes the gateway used.
type Callback struct {
	// Data is the transaction object the signature is computed over.
	Data map[string]any

	TransactionID   string
	MerchantOrderID string
	GatewayOrderID  string
	Success         bool
	Pending         bool
}

// ParseProcessed accepts {"transaction": {...}} and {"type": ..., "obj": {...}}.
// Numbers keep their literal text so the signature base string matches what
// the gateway signed.
func ParseProcessed(raw []byte) (*Callback, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, apperr.Validation("malformed callback body")
	}

	var obj map[string]any
	if t, ok := envelope["transaction"].(map[string]any); ok {
		obj = t
	} else if t, ok := envelope["obj"].(map[string]any); ok {
		obj = t
	} else {
		return nil, apperr.Validation("callback carries neither transaction nor obj")
	}

	success, err := boolField(obj, "success")
	if err != nil {
		return nil, err
	}
	pending, err := boolField(obj, "pending")
	if err != nil {
		return nil, err
	}

	cb := &Callback{
		Data:          obj,
		TransactionID: scalar(obj["id"]),
		Success:       success,
		Pending:       pending,
	}
	switch ord := obj["order"].(type) {
	case map[string]any:
		cb.GatewayOrderID = scalar(ord["id"])
		cb.MerchantOrderID = scalar(ord["merchant_order_id"])
	default:
		cb.GatewayOrderID = scalar(ord)
	}
	if cb.MerchantOrderID == "" {
		cb.MerchantOrderID = scalar(obj["merchant_order_id"])
	}
	return cb, nil
}

func boolField(obj map[string]any, key string) (bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return false, apperr.Validation("callback field %q missing", key)
	}
	b, ok := parseBool(v)
	if !ok {
		return false, apperr.Validation("callback field %q is not a boolean", key)
	}
	return b, nil
}

func parseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(t)))
		return b, err == nil
	}
	return false, false
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
