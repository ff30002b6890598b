package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appjob "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newSQLiteDB(t))
	userID := uuid.New()

	p := &catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Title:      "Levi's 501 bleu",
		Price:      decimal.RequireFromString("35.00"),
		Currency:   "EUR",
		Attributes: catalog.Attributes{Brand: "Levi's", Category: "jeans", Gender: catalog.GenderWomen, Fit: "straight"},
		ImageURLs:  []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		Status:     catalog.ProductStatusDraft,
	}
	require.NoError(t, repo.Save(ctx, p))

	t.Run("scopes lookups to the owner", func(t *testing.T) {
		found, err := repo.FindByIDForUser(ctx, userID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Levi's 501 bleu", found.Title)
		assert.Equal(t, "straight", found.Attributes.Fit)
		assert.Len(t, found.ImageURLs, 2)
		assert.True(t, p.Price.Equal(found.Price))

		_, err = repo.FindByIDForUser(ctx, uuid.New(), p.ID)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})

	t.Run("keeps soft-deleted products readable", func(t *testing.T) {
		p.SoftDelete(time.Now())
		p.MarkSold(time.Now())
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, found.IsDeleted())
		assert.Equal(t, 0, found.StockQuantity)
	})

	t.Run("loads several products at once", func(t *testing.T) {
		products, err := repo.FindByIDs(ctx, userID, []uuid.UUID{p.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, products, 1)

		products, err = repo.FindByIDs(ctx, userID, nil)
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestGormVintedRepositories(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	userID := uuid.New()

	t.Run("links are found by product and by item id", func(t *testing.T) {
		links := NewGormVintedProductRepository(db)
		link := vinted.NewVintedProduct(userID, uuid.New())
		link.ColorIDs = []int64{9, 12}
		require.NoError(t, links.Save(ctx, link))

		_, err := links.FindByVintedID(ctx, userID, 4242)
		assert.ErrorIs(t, err, vinted.ErrLinkNotFound)

		link.MarkPublished(vinted.RemoteItem{ID: 4242, URL: "https://www.vinted.fr/items/4242"}, time.Now())
		require.NoError(t, links.Save(ctx, link))

		byItem, err := links.FindByVintedID(ctx, userID, 4242)
		require.NoError(t, err)
		assert.Equal(t, link.ProductID, byItem.ProductID)
		assert.Equal(t, []int64{9, 12}, byItem.ColorIDs)

		live, err := links.FindLive(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, live, 1)

		_, err = links.FindByProduct(ctx, userID, uuid.New())
		assert.ErrorIs(t, err, vinted.ErrLinkNotFound)
	})

	t.Run("order upsert replaces items", func(t *testing.T) {
		orders := NewGormVintedOrderRepository(db)
		ordered := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
		o := &vinted.VintedOrder{
			UserID:        userID,
			TransactionID: 9001,
			Status:        vinted.OrderPaid,
			TotalPrice:    decimal.RequireFromString("40.00"),
			Currency:      "EUR",
			OrderedAt:     &ordered,
			Items: []vinted.VintedOrderItem{
				{VintedItemID: 1, Title: "Jean", Price: decimal.RequireFromString("25.00")},
				{VintedItemID: 2, Title: "Pull", Price: decimal.RequireFromString("15.00")},
			},
		}

		created, err := orders.Upsert(ctx, o)
		require.NoError(t, err)
		assert.True(t, created)

		again := &vinted.VintedOrder{
			UserID:        userID,
			TransactionID: 9001,
			Status:        vinted.OrderShipped,
			OrderedAt:     &ordered,
			Items:         []vinted.VintedOrderItem{{VintedItemID: 1, Title: "Jean"}},
		}
		created, err = orders.Upsert(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, o.ID, again.ID)

		stored, err := orders.FindByTransactionID(ctx, userID, 9001)
		require.NoError(t, err)
		assert.Equal(t, vinted.OrderShipped, stored.Status)
		assert.Len(t, stored.Items, 1)

		latest, err := orders.LatestOrderedAt(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.Equal(ordered))

		none, err := orders.LatestOrderedAt(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("conversation upsert keeps stored messages", func(t *testing.T) {
		conversations := NewGormVintedConversationRepository(db)
		sent := time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC)
		c := &vinted.Conversation{
			UserID:         userID,
			ConversationID: 77,
			OpponentLogin:  "marie",
			Messages:       []vinted.Message{{MessageID: 1, Body: "Bonjour", SentAt: sent}},
		}
		created, err := conversations.Upsert(ctx, c)
		require.NoError(t, err)
		assert.True(t, created)

		c2 := &vinted.Conversation{
			UserID:         userID,
			ConversationID: 77,
			OpponentLogin:  "marie",
			Unread:         true,
			Messages: []vinted.Message{
				{MessageID: 1, Body: "Bonjour", SentAt: sent},
				{MessageID: 2, Body: "Toujours dispo ?", SentAt: sent.Add(time.Minute)},
			},
		}
		created, err = conversations.Upsert(ctx, c2)
		require.NoError(t, err)
		assert.False(t, created)

		var count int64
		require.NoError(t, db.Table("vinted_messages").Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormEbayRepositories(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	userID := uuid.New()

	t.Run("links are found by sku", func(t *testing.T) {
		links := NewGormEbayProductRepository(db)
		link := ebay.NewEbayProduct(userID, uuid.New(), "")
		link.Aspects = map[string][]string{"Marque": {"Levi's"}}
		require.NoError(t, links.Save(ctx, link))

		found, err := links.FindBySKU(ctx, userID, link.SKU)
		require.NoError(t, err)
		assert.Equal(t, []string{"Levi's"}, found.Aspects["Marque"])
		assert.Equal(t, ebay.DefaultMarketplaceID, found.MarketplaceID)

		published, err := links.FindPublished(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, published)

		_, err = links.FindByProduct(ctx, userID, uuid.New())
		assert.ErrorIs(t, err, ebay.ErrLinkNotFound)
	})

	t.Run("order and inquiry upserts report creation", func(t *testing.T) {
		orders := NewGormEbayOrderRepository(db)
		createdAt := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
		o := &ebay.EbayOrder{
			UserID:        userID,
			OrderID:       "12-34567-89012",
			PaymentStatus: "PAID",
			Total:         decimal.RequireFromString("59.90"),
			LineItems:     []ebay.OrderLineItem{{LineItemID: "1", SKU: "STF-x", Quantity: 1}},
			CreatedOnEbay: createdAt,
		}
		created, err := orders.Upsert(ctx, o)
		require.NoError(t, err)
		assert.True(t, created)

		o2 := *o
		o2.BaseEntity = shared.BaseEntity{}
		o2.FulfillmentStatus = "FULFILLED"
		created, err = orders.Upsert(ctx, &o2)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, o.ID, o2.ID)

		latest, err := orders.LatestCreatedAt(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.Equal(createdAt))

		inquiries := NewGormEbayInquiryRepository(db)
		created, err = inquiries.Upsert(ctx, &ebay.EbayInquiry{UserID: userID, InquiryID: "5001", State: "OPEN", OpenedAt: createdAt})
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("policies are replaced wholesale", func(t *testing.T) {
		policies := NewGormEbayPolicyRepository(db)
		require.NoError(t, policies.ReplaceAll(ctx, userID, []ebay.BusinessPolicy{
			{PolicyID: "f1", Type: ebay.PolicyFulfillment, MarketplaceID: "EBAY_FR", Name: "Colissimo"},
			{PolicyID: "p1", Type: ebay.PolicyPayment, MarketplaceID: "EBAY_FR", Name: "Managed", IsDefault: true},
		}))
		require.NoError(t, policies.ReplaceAll(ctx, userID, []ebay.BusinessPolicy{
			{PolicyID: "r1", Type: ebay.PolicyReturn, MarketplaceID: "EBAY_FR", Name: "30 jours"},
		}))

		cached, err := policies.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, cached, 1)
		assert.Equal(t, "r1", cached[0].PolicyID)
		assert.Equal(t, userID, cached[0].UserID)
	})

	t.Run("missing credential means not connected", func(t *testing.T) {
		credentials := NewGormEbayCredentialRepository(db)
		_, err := credentials.FindByUser(ctx, userID)
		assert.ErrorIs(t, err, ebay.ErrNotConnected)

		c := &ebay.Credential{
			BaseEntity:            shared.NewBaseEntity(),
			UserID:                userID,
			EncryptedRefreshToken: []byte{1, 2, 3},
			Scopes:                []string{"https://api.ebay.com/oauth/api_scope/sell.inventory"},
			MarketplaceID:         "EBAY_FR",
		}
		require.NoError(t, credentials.Save(ctx, c))

		found, err := credentials.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, found.EncryptedRefreshToken)
		assert.Len(t, found.Scopes, 1)
	})
}

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	userID := uuid.New()

	spec, err := marketplace.LookupAction(marketplace.Ebay, marketplace.ActionPublish)
	require.NoError(t, err)

	t.Run("commits batch and children together", func(t *testing.T) {
		batch := job.NewBatchJob(userID, marketplace.Ebay, marketplace.ActionPublish, marketplace.PriorityNormal, 1)
		err := scope.Execute(ctx, func(repos appjob.TransactionalRepositories) error {
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			pid := uuid.New()
			j := job.NewMarketplaceJob(userID, spec, &pid, nil)
			j.BatchID = &batch.ID
			return repos.JobRepo().Save(ctx, j)
		})
		require.NoError(t, err)

		found, err := NewGormBatchRepository(db).FindByReference(ctx, userID, batch.BatchID)
		require.NoError(t, err)
		assert.Equal(t, batch.ID, found.ID)

		active, err := NewGormBatchRepository(db).FindActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		batch := job.NewBatchJob(userID, marketplace.Ebay, marketplace.ActionPublish, marketplace.PriorityNormal, 1)
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos appjob.TransactionalRepositories) error {
			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormBatchRepository(db).FindByReference(ctx, userID, batch.BatchID)
		assert.ErrorIs(t, err, job.ErrBatchNotFound)
	})
}
