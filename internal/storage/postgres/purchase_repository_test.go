package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Dsek-LTH/new-web/internal/domain"
	"github.com/Dsek-LTH/new-web/internal/testutil"
)

func TestPurchaseRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewPurchaseRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-1 * time.Minute)

	t.Run("SetPaymentIntent stamps exactly the given holds", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertShoppable(t, ctx, pool, domain.Shoppable{Name: "x", Price: 100, Stock: 5, AvailableFrom: past})

		listed := testutil.InsertConsumable(t, ctx, pool, domain.Consumable{
			ShoppableID:    id,
			Identification: domain.MemberIdentification("m1"),
			ExpiresAt:      &future,
		})
		// Same buyer, same cart, but not part of the priced listing.
		unlisted := testutil.InsertConsumable(t, ctx, pool, domain.Consumable{
			ShoppableID:    id,
			Identification: domain.MemberIdentification("m1"),
			ExpiresAt:      &future,
		})
		settled := testutil.InsertConsumable(t, ctx, pool, domain.Consumable{
			ShoppableID:    id,
			Identification: domain.MemberIdentification("m2"),
			PurchasedAt:    &past,
		})

		if err := repo.SetPaymentIntent(ctx, []string{listed, settled}, "pi_1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		intents := map[string]*string{}
		rows, err := pool.Query(ctx, `SELECT id, payment_intent_id FROM consumables`)
		if err != nil {
			t.Fatalf("query consumables: %v", err)
		}
		defer rows.Close()
		for rows.Next() {
			var rowID string
			var intent *string
			if err := rows.Scan(&rowID, &intent); err != nil {
				t.Fatalf("scan: %v", err)
			}
			intents[rowID] = intent
		}

		if intents[listed] == nil || *intents[listed] != "pi_1" {
			t.Fatalf("expected listed hold stamped, got %v", intents[listed])
		}
		if intents[unlisted] != nil {
			t.Fatalf("expected unlisted hold untouched, got %v", *intents[unlisted])
		}
		if intents[settled] != nil {
			t.Fatalf("expected purchased row untouched, got %v", *intents[settled])
		}
	})

	t.Run("MarkPurchasedByIntent settles once and clears expiry", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertShoppable(t, ctx, pool, domain.Shoppable{Name: "x", Price: 100, Stock: 5, AvailableFrom: past})

		testutil.InsertConsumable(t, ctx, pool, domain.Consumable{
			ShoppableID:     id,
			Identification:  domain.MemberIdentification("m1"),
			ExpiresAt:       &future,
			PaymentIntentID: "pi_1",
		})
		testutil.InsertConsumable(t, ctx, pool, domain.Consumable{
			ShoppableID:     id,
			Identification:  domain.MemberIdentification("m1"),
			ExpiresAt:       &future,
			PaymentIntentID: "pi_1",
		})

		n, err := repo.MarkPurchasedByIntent(ctx, "pi_1", now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 settled, got %d", n)
		}

		// Settled rows leave the cart listing.
		items, err := repo.ListCart(ctx, domain.MemberIdentification("m1"), now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("expected empty cart after settlement, got %d", len(items))
		}

		n, err = repo.MarkPurchasedByIntent(ctx, "pi_1", now.Add(time.Minute))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Fatalf("expected idempotent settlement, got %d", n)
		}
	})

	t.Run("MarkPurchasedByIntent ignores unknown intent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		n, err := repo.MarkPurchasedByIntent(ctx, "pi_missing", now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 settled, got %d", n)
		}
	})
}
