package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"fanclub/gateway"
	"fanclub/service"
	"fanclub/tracing"
)

type config struct {
	HTTPAddr  string `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"HTTP listen address"`
	PublicURL string `long:"public-url" env:"PUBLIC_URL" default:"http://localhost:8080" description:"Base URL for checkout redirects"`

	PostgresURL string `long:"postgres-url" env:"POSTGRES_URL" required:"true" description:"Postgres connection string"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" required:"true" description:"Redis address"`

	PaymentAPIURL        string `long:"payment-api-url" env:"PAYMENT_API_URL" required:"true"`
	PaymentAPIKey        string `long:"payment-api-key" env:"PAYMENT_API_KEY" required:"true"`
	PaymentWebhookSecret string `long:"payment-webhook-secret" env:"PAYMENT_WEBHOOK_SECRET" required:"true"`

	RoomsAPIURL string `long:"rooms-api-url" env:"ROOMS_API_URL" required:"true"`
	RoomsAPIKey string `long:"rooms-api-key" env:"ROOMS_API_KEY" required:"true"`

	MailerAPIURL string `long:"mailer-api-url" env:"MAILER_API_URL" required:"true"`
	MailerAPIKey string `long:"mailer-api-key" env:"MAILER_API_KEY" required:"true"`

	JaegerEndpoint string `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" default:"http://localhost:14268/api/traces"`
}

func main() {
	log.Init(logrus.InfoLevel)

	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp := tracing.ConfigureTraceProvider(cfg.JaegerEndpoint)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	dbconn, err := otelsql.Open("postgres", cfg.PostgresURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName("fanclub"),
	)
	if err != nil {
		panic(err)
	}
	db := sqlx.NewDb(dbconn, "postgres")
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer redisClient.Close()

	paymentClient := gateway.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	roomsClient := gateway.NewRoomsClient(cfg.RoomsAPIURL, cfg.RoomsAPIKey)
	notificationsClient := gateway.NewNotificationsClient(cfg.MailerAPIURL, cfg.MailerAPIKey)

	err = service.New(
		cfg.HTTPAddr,
		cfg.PublicURL,
		cfg.PaymentWebhookSecret,
		db,
		redisClient,
		paymentClient,
		roomsClient,
		notificationsClient,
	).Run(ctx)
	if err != nil {
		panic(err)
	}
}
