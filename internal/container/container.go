package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miniurl/miniurl/internal/analytics"
	"github.com/miniurl/miniurl/internal/geoip"
	"github.com/miniurl/miniurl/internal/handlers"
	"github.com/miniurl/miniurl/internal/health"
	"github.com/miniurl/miniurl/internal/messaging"
	"github.com/miniurl/miniurl/internal/middleware"
	"github.com/miniurl/miniurl/internal/shortener"
	"github.com/miniurl/miniurl/internal/store"
	"github.com/miniurl/miniurl/internal/title"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options configures both binaries. humacli maps each field to a flag and
// environment variable.
type Options struct {
	Port         int    `default:"8888"                           help:"Port to listen on"                            short:"p"`
	BaseURL      string `default:""                               help:"Public base URL for short links (defaults to http://localhost:<port>)"`
	CodeLength   int    `default:"8"                              help:"Length of generated short codes"              short:"c"`
	DatabaseURL  string `default:"postgres://localhost:5432/miniurl" help:"PostgreSQL connection string"`
	RedisAddr    string `default:"localhost:6379"                 help:"Redis server address"                         short:"r"`
	CacheTTL     int    `default:"3600"                           help:"Short link cache TTL in seconds"`
	GeoBaseURL   string `default:"http://ip-api.com/json"         help:"Geolocation provider base URL"`
	GeoTimeout   int    `default:"3"                              help:"Geolocation lookup timeout in seconds"`
	TitleTimeout int    `default:"5"                              help:"Title fetch timeout in seconds"`
	Recorder     string `default:"sync"                           help:"Visit recorder: sync or events"`
	LogFormat    string `default:"console"                        help:"Log format: console or json"`
}

// ShortLinkBaseURL returns the configured base URL or a localhost default.
func (o *Options) ShortLinkBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the redis client used by the cache, the event
// transport, and the health check.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the pgx connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.DatabaseURL)
	})
}

// RepositoryPackage provides the link and visit repositories: postgres as
// the source of truth, redis as a read cache on the redirect path.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.PostgresStore, error) {
		return store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		options := do.MustInvoke[*Options](i)
		pg := do.MustInvoke[*store.PostgresStore](i)
		client := do.MustInvoke[*redis.Client](i)
		ttl := time.Duration(options.CacheTTL) * time.Second

		return store.NewRedisCacheRepository(pg, client, ttl), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.VisitRepository, error) {
		return do.MustInvoke[*store.PostgresStore](i), nil
	})
}

// EnrichmentPackage provides the best-effort title fetcher and geolocation
// client.
func EnrichmentPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.TitleFetcher, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return title.NewFetcher(time.Duration(options.TitleTimeout)*time.Second, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Geolocator, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return geoip.NewClient(options.GeoBaseURL, time.Duration(options.GeoTimeout)*time.Second, logger), nil
	})
}

// PublisherGroupPackage provides the visit event publisher over redis
// streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.VisitEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.VisitEvent](group.Publisher(), analytics.TopicVisitRecorded), nil
	})
}

// ServicePackage provides the shortener service with the configured visit
// recorder.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.VisitRecorder, error) {
		options := do.MustInvoke[*Options](i)

		if options.Recorder == "events" {
			publish := do.MustInvoke[messaging.Publish[analytics.VisitEvent]](i)

			return analytics.NewEventRecorder(publish), nil
		}

		visits := do.MustInvoke[shortener.VisitRepository](i)
		geo := do.MustInvoke[shortener.Geolocator](i)

		return shortener.NewSyncRecorder(visits, geo), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		options := do.MustInvoke[*Options](i)

		generator, err := shortener.NewCodeGenerator(options.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.VisitRepository](i),
			generator,
			do.MustInvoke[shortener.TitleFetcher](i),
			do.MustInvoke[shortener.Geolocator](i),
			do.MustInvoke[shortener.VisitRecorder](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HTTPPackage provides the router and API with all routes and middleware
// registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		service := do.MustInvoke[*shortener.Service](i)

		api := humachi.New(router, huma.DefaultConfig("MiniURL", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		checks := map[string]health.Checker{
			"redis":    health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
			"postgres": health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i)),
		}
		health.RegisterRoutes(api, health.NewHandler(checks))

		linkHandler := handlers.NewLinkHandler(service, options.ShortLinkBaseURL(), logger)
		handlers.RegisterRoutes(api, linkHandler)

		return api, nil
	})
}

// ConsumerGroupPackage provides the visit analytics consumer group over
// redis streams.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client,
				ConsumerGroup: "visit-analytics",
			},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, err
		}

		visits := do.MustInvoke[shortener.VisitRepository](i)
		geo := do.MustInvoke[shortener.Geolocator](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumer(subscriber, visits, geo, logger))

		return group, nil
	})
}
