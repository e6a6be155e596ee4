package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ecommerce_back_end/internal/auth"
	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/config"
	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/invoice"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/notifications"
	"ecommerce_back_end/internal/repository"
	"ecommerce_back_end/internal/repository/memory"
	"ecommerce_back_end/internal/repository/scylla"
	"ecommerce_back_end/internal/routes"
	"ecommerce_back_end/internal/search"
	"ecommerce_back_end/internal/services"
	"ecommerce_back_end/internal/storage"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, scyllaManager := openStore(cfg)
	if scyllaManager != nil {
		defer scyllaManager.Close()
	}

	// Redis : cache, rate limit, pub/sub panier et file de notifications
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Printf("⚠️ Redis indisponible, repli en mémoire: %v", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	var (
		productCache cache.Store
		counter      middleware.AttemptCounter
		events       cache.CartEvents
		queue        notifications.Queue
	)
	if redisClient != nil {
		rc := cache.NewRedisCache(redisClient, cfg.CacheTTL)
		productCache, counter = rc, rc
		events = cache.NewRedisCartEvents(redisClient)
		queue = notifications.NewRedisQueue(redisClient, cfg.Notify.QueueKey)
	} else {
		mc := cache.NewMemory(cfg.CacheTTL)
		productCache, counter = mc, mc
		events = cache.NewLocalCartEvents()
		queue = notifications.NewChannelQueue(1000)
	}

	catalogOpts := []services.CatalogOption{services.WithLowStockThreshold(cfg.LowStockThreshold)}
	if cfg.ElasticEnabled() {
		if es, err := database.ConnectElastic(cfg); err != nil {
			log.Printf("⚠️ Elasticsearch indisponible, recherche en base: %v", err)
		} else {
			catalogOpts = append(catalogOpts, services.WithSearchIndex(search.NewElasticIndex(es, cfg.ElasticIndex)))
		}
	}
	if cfg.MinIOEnabled() {
		if mc, err := database.ConnectMinIO(ctx, cfg.MinIO); err != nil {
			log.Printf("⚠️ MinIO indisponible, upload d'images désactivé: %v", err)
		} else {
			catalogOpts = append(catalogOpts, services.WithImageStore(storage.NewMinIOStore(mc, cfg.MinIO.Bucket, cfg.MinIO.URLExpiry)))
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	catalog := services.NewCatalogService(store.Products, store.Movements, productCache, catalogOpts...)
	carts := services.NewCartService(store.Carts, store.Products, events)
	invoices := invoice.NewRenderer(cfg.FrontendURL, cfg.InvoicePDFEnabled)

	var mailer notifications.Mailer = notifications.LogMailer{}
	if cfg.SMTPEnabled() {
		mailer = notifications.NewSMTPMailer(cfg.SMTP)
		log.Println("📧 Envoi des emails via", cfg.SMTP.Host)
	} else {
		log.Println("⚠️ SMTP non configuré, les emails seront seulement journalisés")
	}

	initOAuthProviders(cfg)

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Config:   cfg,
		Store:    store,
		Auth:     services.NewAuthService(store.Users, store.Tokens, tokens, cfg.AdminEmails),
		Catalog:  catalog,
		Coupons:  services.NewCouponService(store.Coupons),
		Carts:    carts,
		Orders:   services.NewOrderService(store.Orders, store.Coupons, store.Products, catalog, carts, queue),
		Events:   events,
		Counter:  counter,
		Invoices: invoices,
		Health:   healthCheck(scyllaManager, redisClient),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Notify.Workers; i++ {
		worker := notifications.NewWorker(queue, store.Users, store.Orders, mailer, invoices, cfg.Notify.MaxRetries)
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.Println("🚀 Serveur e-commerce lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Arrêt du serveur...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Erreur serveur: %v", err)
	}
	log.Println("✅ Serveur arrêté proprement")
}

func openStore(cfg *config.Config) (*repository.Store, *database.ScyllaManager) {
	if cfg.UseMemoryStore() {
		log.Println("⚠️ STORE_DRIVER=memory : données non persistées")
		return memory.NewStore(), nil
	}

	sm, err := database.NewScyllaManager(cfg.Scylla)
	if err != nil {
		log.Fatalf("❌ Connexion ScyllaDB impossible: %v", err)
	}
	if cfg.Scylla.AutoMigrate {
		if err := sm.Migrate(); err != nil {
			log.Fatalf("❌ Migration du schéma échouée: %v", err)
		}
	}
	store, err := scylla.NewStore(sm)
	if err != nil {
		log.Fatalf("❌ Initialisation des dépôts: %v", err)
	}
	return store, sm
}

func healthCheck(sm *database.ScyllaManager, rdb *redis.Client) func() map[string]string {
	return func() map[string]string {
		checks := map[string]string{}
		if sm != nil {
			checks["scylla"] = "ok"
			if _, err := sm.Products(); err != nil {
				checks["scylla"] = err.Error()
			}
		}
		if rdb != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
			}
		}
		return checks
	}
}

func initOAuthProviders(cfg *config.Config) {
	if cfg.SessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET manquant, connexion sociale désactivée")
		return
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	var providers []goth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackBaseURL+"/google/callback", "email", "profile"))
		log.Println("✅ Google OAuth activé")
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(cfg.FacebookClientID, cfg.FacebookClientSecret, cfg.OAuthCallbackBaseURL+"/facebook/callback", "email"))
		log.Println("✅ Facebook OAuth activé")
	}

	if len(providers) == 0 {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return
	}
	goth.UseProviders(providers...)
	log.Printf("✅ %d OAuth provider(s) initialisé(s)", len(providers))
}
