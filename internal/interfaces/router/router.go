package router

import (
	"context"

	agreementsvc "flowconnect-backend/internal/application/agreements"
	campaignsvc "flowconnect-backend/internal/application/campaigns"
	connsvc "flowconnect-backend/internal/application/connections"
	exchangesvc "flowconnect-backend/internal/application/exchange"
	prefsvc "flowconnect-backend/internal/application/preferences"
	prefixsvc "flowconnect-backend/internal/application/prefixpatterns"
	searchsvc "flowconnect-backend/internal/application/search"
	"flowconnect-backend/internal/blob"
	"flowconnect-backend/internal/config"
	"flowconnect-backend/internal/domain"
	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/infrastructure/database"
	agreementhandler "flowconnect-backend/internal/interfaces/handlers/agreements"
	campaignhandler "flowconnect-backend/internal/interfaces/handlers/campaigns"
	connhandler "flowconnect-backend/internal/interfaces/handlers/connections"
	exchangehandler "flowconnect-backend/internal/interfaces/handlers/exchange"
	healthhandler "flowconnect-backend/internal/interfaces/handlers/health"
	prefhandler "flowconnect-backend/internal/interfaces/handlers/preferences"
	prefixhandler "flowconnect-backend/internal/interfaces/handlers/prefixpatterns"
	searchhandler "flowconnect-backend/internal/interfaces/handlers/search"
	"flowconnect-backend/internal/mail"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/partnerapi"
	"flowconnect-backend/internal/tenancy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp wires configuration into a ready-to-listen Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               64 * 1024 * 1024,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	db, err := database.Open(cfg.SubscriptionDatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	store, err := blob.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, "")
	if err != nil {
		return nil, nil, nil, err
	}

	tenants := tenancy.NewRouter(db, nil)
	mailer := &mail.BrevoProvider{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom}
	connections := &connsvc.Service{DB: db}
	prefs := &prefsvc.Service{Router: tenants}
	partner := &partnerapi.Client{BaseURL: cfg.PartnerAPIBaseURL, APIKey: cfg.PartnerAPIKey}

	hh := &healthhandler.Handlers{DB: db, Rdb: rdb}
	app.Get("/health/live", hh.Live)
	app.Get("/health/ready", hh.Ready)

	resolver := &identity.Resolver{DB: db}
	api := app.Group("/api/v1", middleware.Auth(resolver, rdb))

	// Exchange files
	es := &exchangesvc.Service{
		Router:    tenants,
		Blob:      store,
		Validator: &exchangesvc.BasicValidator{},
		Deliverer: &exchangesvc.Deliverer{
			Router:      tenants,
			Partner:     partner,
			Preferences: prefs,
		},
	}
	eh := &exchangehandler.Handlers{
		Service:  es,
		Received: &exchangesvc.ReceivedService{Router: tenants, Blob: store},
	}
	eg := api.Group("/exchange-files")
	eg.Post("/upload", eh.Upload)
	eg.Get("/pending", eh.ListPending)
	eg.Get("/pending/stats", eh.PendingStats)
	eg.Get("/sent", eh.ListSent)
	eg.Post("/send", eh.SendPending)
	eg.Get("/:id/issues", eh.ListIssues)
	eg.Delete("/:id", eh.Delete)
	rg := api.Group("/received-files")
	rg.Get("/", eh.ListReceived)
	rg.Post("/:id/download", eh.DownloadReceived)

	// Campaigns
	cs := &campaignsvc.Service{Router: tenants, Mail: mailer}
	ch := &campaignhandler.Handlers{Service: cs}
	cg := api.Group("/campaigns")
	cg.Post("/", ch.Create)
	cg.Get("/", ch.List)
	cg.Post("/preview-criteria", ch.PreviewCriteria)
	cg.Get("/:id", ch.Get)
	cg.Patch("/:id", ch.Update)
	cg.Delete("/:id", ch.Delete)
	cg.Post("/:id/start", ch.Start)
	cg.Post("/:id/pause", ch.Pause)
	cg.Post("/:id/resume", ch.Resume)
	cg.Post("/:id/refresh-recipients", ch.Refresh)
	cg.Get("/:id/status", ch.Status)
	cg.Post("/:id/send-batch", ch.SendBatch)
	cg.Post("/:id/send-test", ch.SendTest)

	// Partner search
	ss := &searchsvc.Service{DB: db, Router: tenants, Blob: store, Connections: connections}
	sh := &searchhandler.Handlers{Service: ss}
	api.Get("/search/connections", sh.Search)

	// Connection territories
	ts := &connsvc.TerritoryService{
		Router:      tenants,
		Connections: connections,
		OrgTypeOf: func(ctx context.Context, orgID uuid.UUID) (string, error) {
			var org domain.Organization
			if err := db.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
				return "", err
			}
			return org.OrgType, nil
		},
	}
	th := &connhandler.Handlers{Territories: ts}
	tg := api.Group("/connections")
	tg.Put("/:id/territories", th.SetTerritories)
	tg.Get("/:id/territories", th.ListTerritories)

	// Preferences
	ph := &prefhandler.Handlers{Service: prefs}
	pg := api.Group("/preferences")
	pg.Get("/", ph.ListGrouped)
	pg.Get("/:application", ph.ListForApplication)
	pg.Get("/:application/:key", ph.Get)
	pg.Put("/:application/:key", ph.Set)

	// Agreements and aliases
	as := &agreementsvc.Service{Router: tenants, Blob: store}
	als := &agreementsvc.AliasService{Router: tenants}
	ah := &agreementhandler.Handlers{Service: as, Aliases: als}
	ag := api.Group("/agreements")
	ag.Post("/:connected_org_id", ah.Upload)
	ag.Get("/:connected_org_id", ah.Get)
	ag.Delete("/:connected_org_id", ah.Delete)
	alg := api.Group("/aliases")
	alg.Post("/import", ah.ImportAliases)
	alg.Get("/", ah.ListAliases)
	alg.Delete("/:id", ah.DeleteAlias)

	// Prefix patterns
	pps := &prefixsvc.Service{Router: tenants}
	pph := &prefixhandler.Handlers{Service: pps}
	ppg := api.Group("/prefix-patterns")
	ppg.Post("/", pph.Create)
	ppg.Get("/", pph.List)
	ppg.Patch("/:id", pph.Update)
	ppg.Delete("/:id", pph.Delete)

	return app, db, rdb, nil
}
