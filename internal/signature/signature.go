// Package signature computes and checks the gateway's HMAC over an ordered,
// flattened field set.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
)

var (
	ErrMissingSignature = fmt.Errorf("%w: missing", apperr.ErrSignature)
	ErrInvalidSignature = fmt.Errorf("%w: mismatch", apperr.ErrSignature)
)

// ProcessedFields is the field order of the server-to-server callback.
var ProcessedFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// RedirectFields is the field order of the browser redirect. The gateway
// sends the order id there as a bare "order" key.
var RedirectFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// Flatten turns nested objects into dot separated keys. Arrays are kept as
// values.
func Flatten(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	flattenInto(out, "", data)
	return out
}

func flattenInto(out map[string]any, prefix string, data map[string]any) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

// FlattenAndConcatenate builds the HMAC base string: the stringified value of
// every field in order, missing or null values contributing nothing.
func FlattenAndConcatenate(fields []string, data map[string]any) string {
	flat := Flatten(data)
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(stringify(flat[f]))
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// Sign returns the hex encoded HMAC-SHA256 of the base string.
func Sign(secret []byte, fields []string, data map[string]any) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(FlattenAndConcatenate(fields, data)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify rejects an absent signature outright and compares in constant time.
// The returned error never says which field diverged.
func Verify(secret []byte, fields []string, data map[string]any, sig string) error {
	sig = strings.TrimSpace(sig)
	if sig == "" {
		return ErrMissingSignature
	}
	given, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(FlattenAndConcatenate(fields, data)))
	if !hmac.Equal(mac.Sum(nil), given) {
		return ErrInvalidSignature
	}
	return nil
}
