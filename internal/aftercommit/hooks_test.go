package aftercommit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skotchmaster/storefront-fulfillment/internal/audit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cache"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/notify"
)

type fakeNotifier struct {
	sent []notify.Email
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notify.Email) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeEvents struct{ types []string }

func (f *fakeEvents) Publish(_ context.Context, eventType, _ string, _ any) error {
	f.types = append(f.types, eventType)
	return nil
}

type fakeCache struct{ got []cache.OrderStatus }

func (f *fakeCache) SetStatus(_ context.Context, s cache.OrderStatus) error {
	f.got = append(f.got, s)
	return nil
}

type fakeAudit struct{ got []audit.Entry }

func (f *fakeAudit) IndexHistory(_ context.Context, e audit.Entry) error {
	f.got = append(f.got, e)
	return nil
}

func TestRun_FansOut(t *testing.T) {
	n, ev, c, a := &fakeNotifier{}, &fakeEvents{}, &fakeCache{}, &fakeAudit{}
	h := &Hooks{Notifier: n, Events: ev, Cache: c, Audit: a}
	comment := "Order cancelled by customer"
	order := models.Order{ID: uuid.New(), MerchantOrderID: "ORD-1", Status: models.StatusCancelled}

	h.Run(context.Background(), Change{
		Order:     order,
		Entry:     &models.StatusHistory{ID: uuid.New(), Status: models.StatusCancelled, Comment: &comment},
		Source:    "customer",
		EventType: "OrderCancelled",
		Email:     &notify.Email{To: "c@example.com", Template: notify.TemplateOrderCancelled},
	})

	require.Len(t, n.sent, 1)
	assert.Equal(t, []string{"OrderCancelled"}, ev.types)
	require.Len(t, c.got, 1)
	assert.Equal(t, "CANCELLED", c.got[0].Status)
	require.Len(t, a.got, 1)
	assert.Equal(t, comment, a.got[0].Comment)
}

func TestRun_EmailFailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logging.IntoContext(context.Background(), zap.New(core))
	h := &Hooks{Notifier: &fakeNotifier{err: errors.New("smtp down")}}

	h.Run(ctx, Change{Order: models.Order{ID: uuid.New()}, Email: &notify.Email{To: "c@example.com"}})

	require.Equal(t, 1, logs.FilterMessage("email_notify_error").Len())
}

func TestRun_NilHooks(t *testing.T) {
	var h *Hooks
	assert.NotPanics(t, func() { h.Run(context.Background(), Change{}) })
	assert.NotPanics(t, func() { (&Hooks{}).Run(context.Background(), Change{}) })
}
