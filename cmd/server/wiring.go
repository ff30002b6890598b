package main

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	ebayapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	vintedapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/cache"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/ecommerce"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/event"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/storage"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

type repositories struct {
	jobs          *persistence.GormJobRepository
	batches       *persistence.GormBatchRepository
	products      *persistence.GormProductRepository
	vintedMapping *persistence.GormVintedMappingRepository
	vintedLinks   *persistence.GormVintedProductRepository
	vintedOrders  *persistence.GormVintedOrderRepository
	vintedConvos  *persistence.GormVintedConversationRepository
	ebayLinks     *persistence.GormEbayProductRepository
	ebayOrders    *persistence.GormEbayOrderRepository
	ebayInquiries *persistence.GormEbayInquiryRepository
	ebayPolicies  *persistence.GormEbayPolicyRepository
	ebayCreds     *persistence.GormEbayCredentialRepository
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		jobs:          persistence.NewGormJobRepository(db),
		batches:       persistence.NewGormBatchRepository(db),
		products:      persistence.NewGormProductRepository(db),
		vintedMapping: persistence.NewGormVintedMappingRepository(db),
		vintedLinks:   persistence.NewGormVintedProductRepository(db),
		vintedOrders:  persistence.NewGormVintedOrderRepository(db),
		vintedConvos:  persistence.NewGormVintedConversationRepository(db),
		ebayLinks:     persistence.NewGormEbayProductRepository(db),
		ebayOrders:    persistence.NewGormEbayOrderRepository(db),
		ebayInquiries: persistence.NewGormEbayInquiryRepository(db),
		ebayPolicies:  persistence.NewGormEbayPolicyRepository(db),
		ebayCreds:     persistence.NewGormEbayCredentialRepository(db),
	}
}

// newEventPublisher returns the publisher used by the job services and a
// function releasing the broker connection.
func newEventPublisher(cfg config.RabbitMQConfig, log *zap.Logger) (shared.EventPublisher, func()) {
	bus := event.NewInMemoryEventBus(log)
	audit := event.NewAuditLogHandler(log)
	bus.Subscribe(audit, audit.EventTypes()...)

	if !cfg.Enabled {
		return bus, func() {}
	}

	rabbit, err := event.NewRabbitMQPublisher(cfg, event.NewJobEventSerializer(), log)
	if err != nil {
		// job processing does not depend on the broker
		log.Warn("RabbitMQ unavailable, events stay in-process", zap.Error(err))
		return bus, func() {}
	}
	return event.NewFanoutPublisher(bus, rabbit), func() {
		if err := rabbit.Close(); err != nil {
			log.Error("Error closing RabbitMQ", zap.Error(err))
		}
	}
}

func newStrategies(
	cfg *config.Config,
	repos *repositories,
	bridge *plugin.Bridge,
	mappings *mapping.VintedMappingService,
	tokens cache.TokenCache,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) jobhandler.Strategies {
	s := jobhandler.Strategies{
		Listings:  map[marketplace.Marketplace]jobhandler.ListingStrategy{},
		Syncs:     map[marketplace.Marketplace]jobhandler.ListingSyncStrategy{},
		Orders:    map[marketplace.Marketplace]jobhandler.OrderSyncStrategy{},
		Messages:  map[marketplace.Marketplace]jobhandler.MessageSyncStrategy{},
		Inquiries: map[marketplace.Marketplace]jobhandler.InquirySyncStrategy{},
		Policies:  map[marketplace.Marketplace]jobhandler.PolicySyncStrategy{},
	}

	var images jobhandler.ImageResolver
	if cfg.Storage.Enabled {
		resolver, err := storage.NewS3ImageResolver(cfg.Storage, log)
		if err != nil {
			log.Warn("Object storage unavailable, image references are sent as-is", zap.Error(err))
		} else {
			images = resolver
		}
	}

	// Vinted goes through the browser plugin
	vintedGateway := ecommerce.NewVintedAdapter(bridge, log)
	vintedSync := vintedapp.NewSyncStrategy(vintedGateway, repos.vintedLinks, repos.vintedOrders, repos.vintedConvos, repos.products, log)
	s.Listings[marketplace.Vinted] = vintedapp.NewListingStrategy(vintedGateway, mappings, repos.vintedLinks, images, log)
	s.Syncs[marketplace.Vinted] = vintedSync
	s.Orders[marketplace.Vinted] = vintedSync
	s.Messages[marketplace.Vinted] = vintedSync

	cipher, err := auth.NewTokenCipher(cfg.Crypto.TokenKey)
	if err != nil {
		log.Warn("eBay disabled: no usable token encryption key", zap.Error(err))
		return s
	}

	ebayConfig := ecommerce.EbayClientConfigFrom(cfg.Ebay)
	ebayTokens := ecommerce.NewEbayTokenProvider(ebayConfig, repos.ebayCreds, cipher, tokens, log.Named("ebay_token"))
	ebayClient := ecommerce.NewEbayClient(ebayConfig, ebayTokens, metrics, log.Named("ebay"))
	inventory := ecommerce.NewInventoryClient(ebayClient)

	policies := ebayapp.NewPolicyService(ecommerce.NewAccountClient(ebayClient), repos.ebayPolicies, repos.ebayCreds, log)
	ebaySync := ebayapp.NewSyncStrategy(
		inventory,
		ecommerce.NewFulfillmentClient(ebayClient),
		ecommerce.NewPostOrderClient(ebayClient),
		repos.ebayLinks,
		repos.ebayOrders,
		repos.ebayInquiries,
		repos.products,
		log,
	)
	s.Listings[marketplace.Ebay] = ebayapp.NewListingStrategy(
		inventory,
		mapping.NewEbayMapper(cfg.Ebay.Categories),
		repos.ebayLinks,
		repos.ebayCreds,
		policies,
		images,
		log,
	)
	s.Syncs[marketplace.Ebay] = ebaySync
	s.Orders[marketplace.Ebay] = ebaySync
	s.Inquiries[marketplace.Ebay] = ebaySync
	s.Policies[marketplace.Ebay] = policies
	return s
}

// parseMarketplaces turns JOBS_MARKETPLACES into the runner filter; empty means all
func parseMarketplaces(names []string, log *zap.Logger) []marketplace.Marketplace {
	out := make([]marketplace.Marketplace, 0, len(names))
	for _, name := range names {
		m, err := marketplace.ParseMarketplace(name)
		if err != nil {
			log.Warn("Ignoring unknown marketplace in jobs config", zap.String("marketplace", name))
			continue
		}
		out = append(out, m)
	}
	return out
}
