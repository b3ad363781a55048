package signature

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
)

var secret = []byte("test-hmac-secret")

func sampleTransaction() map[string]any {
	return map[string]any{
		"amount_cents":           json.Number("15000"),
		"created_at":             "2024-05-01T10:00:00.000000",
		"currency":               "EGP",
		"error_occured":          false,
		"has_parent_transaction": false,
		"id":                     json.Number("987654"),
		"integration_id":         json.Number("4567"),
		"is_3d_secure":           true,
		"is_auth":                false,
		"is_capture":             false,
		"is_refunded":            false,
		"is_standalone_payment":  true,
		"is_voided":              false,
		"order":                  map[string]any{"id": json.Number("1122"), "merchant_order_id": "ORD-1"},
		"owner":                  json.Number("42"),
		"pending":                false,
		"source_data":            map[string]any{"pan": "2346", "sub_type": "MasterCard", "type": "card"},
		"success":                true,
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
		"d": []any{1, 2},
	})
	assert.Equal(t, 1, flat["a.b.c"])
	assert.Equal(t, []any{1, 2}, flat["d"])
	_, nested := flat["a"]
	assert.False(t, nested)
}

func TestFlattenAndConcatenate(t *testing.T) {
	data := map[string]any{
		"a":     "x",
		"b":     nil,
		"c":     []any{"p", json.Number("2")},
		"n":     json.Number("10.50"),
		"f":     2.5,
		"flag":  true,
		"order": map[string]any{"id": json.Number("7")},
	}
	got := FlattenAndConcatenate([]string{"a", "b", "missing", "c", "n", "f", "flag", "order.id"}, data)
	assert.Equal(t, `x["p",2]10.502.5true7`, got)
}

func TestFlattenAndConcatenate_KnownBaseString(t *testing.T) {
	got := FlattenAndConcatenate(ProcessedFields, sampleTransaction())
	assert.Equal(t, "150002024-05-01T10:00:00.000000EGPfalsefalse9876544567truefalsefalsefalsetruefalse112242false2346MasterCardcardtrue", got)
}

func TestVerify_RoundTrip(t *testing.T) {
	data := sampleTransaction()
	sig := Sign(secret, ProcessedFields, data)

	require.NoError(t, Verify(secret, ProcessedFields, data, sig))
	require.NoError(t, Verify(secret, ProcessedFields, data, strings.ToUpper(sig)))
}

func TestVerify_RejectsAnyFieldChange(t *testing.T) {
	data := sampleTransaction()
	sig := Sign(secret, ProcessedFields, data)

	for _, field := range []string{"amount_cents", "currency", "success", "pending"} {
		t.Run(field, func(t *testing.T) {
			tampered := sampleTransaction()
			switch v := tampered[field].(type) {
			case bool:
				tampered[field] = !v
			case json.Number:
				tampered[field] = json.Number(string(v) + "1")
			case string:
				tampered[field] = v + "X"
			}
			err := Verify(secret, ProcessedFields, tampered, sig)
			require.ErrorIs(t, err, ErrInvalidSignature)
			require.ErrorIs(t, err, apperr.ErrSignature)
		})
	}

	tampered := sampleTransaction()
	tampered["order"].(map[string]any)["id"] = json.Number("1123")
	require.ErrorIs(t, Verify(secret, ProcessedFields, tampered, sig), ErrInvalidSignature)
}

func TestVerify_RejectsFlippedSignatureByte(t *testing.T) {
	data := sampleTransaction()
	sig := []byte(Sign(secret, ProcessedFields, data))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	require.ErrorIs(t, Verify(secret, ProcessedFields, data, string(sig)), ErrInvalidSignature)
}

func TestVerify_RejectsReorderedFields(t *testing.T) {
	data := sampleTransaction()
	sig := Sign(secret, ProcessedFields, data)

	reordered := append([]string{}, ProcessedFields...)
	reordered[0], reordered[1] = reordered[1], reordered[0]

	require.ErrorIs(t, Verify(secret, reordered, data, sig), ErrInvalidSignature)
}

func TestVerify_RejectsMissingAndGarbage(t *testing.T) {
	data := sampleTransaction()

	require.ErrorIs(t, Verify(secret, ProcessedFields, data, ""), ErrMissingSignature)
	require.ErrorIs(t, Verify(secret, ProcessedFields, data, "   "), ErrMissingSignature)
	require.ErrorIs(t, Verify(secret, ProcessedFields, data, "not-hex"), ErrInvalidSignature)
	require.ErrorIs(t, Verify([]byte("other"), ProcessedFields, data, Sign(secret, ProcessedFields, data)), ErrInvalidSignature)
}

func TestRedirectFieldsUseBareOrderKey(t *testing.T) {
	require.Len(t, RedirectFields, len(ProcessedFields))
	for i := range ProcessedFields {
		if ProcessedFields[i] == "order.id" {
			assert.Equal(t, "order", RedirectFields[i])
			continue
		}
		assert.Equal(t, ProcessedFields[i], RedirectFields[i])
	}
}
