// Command chaosmongo-example is a runnable demonstration of every
// collaborator the library provides wired into one process: connect,
// apply migrations on startup, publish and consume from an example queue,
// expose health/metrics endpoints a hosting platform would probe, and
// serve a minimal hand-rolled gRPC service gated by readiness, logged,
// recovered from panics, and instrumented, the same shape the library's
// gRPC plumbing is meant to sit behind.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chaosmongo/chaosmongo/pkg/chaosmongo"
	chaosconfig "github.com/chaosmongo/chaosmongo/pkg/config"
	examplehealth "github.com/chaosmongo/chaosmongo/pkg/health"
	"github.com/chaosmongo/chaosmongo/pkg/hostedservice"
	"github.com/chaosmongo/chaosmongo/pkg/lock"
	"github.com/chaosmongo/chaosmongo/pkg/metrics"
	"github.com/chaosmongo/chaosmongo/pkg/migrator"
	"github.com/chaosmongo/chaosmongo/pkg/queue"
)

// widgetCreated is the example payload type published to and consumed
// from a dedicated queue collection.
type widgetCreated struct {
	WidgetID string `bson:"widgetId"`
	Name     string `bson:"name"`
}

type widgetHandler struct {
	logger *logrus.Entry
}

func (h *widgetHandler) Handle(_ context.Context, payload widgetCreated) error {
	h.logger.WithField("widget_id", payload.WidgetID).Info("example: handled widget-created event")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := chaosconfig.Config()
	if err != nil {
		logrus.WithError(err).Fatal("example: failed to load configuration")
	}

	log := logrus.WithField("service", cfg.ServiceName)

	commandMetrics := metrics.NewRegistry(cfg.ServiceName, cfg.AppEnv, cfg.ServiceVersion)
	mongoMetrics := metrics.NewMongoMetrics(commandMetrics)
	chaosMetrics := metrics.NewChaosMongoMetrics(commandMetrics)
	readinessGauge := metrics.NewReadinessGauge(commandMetrics)

	instance, err := chaosmongo.New(ctx, cfg.Mongo,
		chaosmongo.WithClientSettingsHook(func(o *options.ClientOptions) {
			o.SetMonitor(mongoMetrics.Monitor())
		}),
	)
	if err != nil {
		log.WithError(err).Fatal("example: failed to connect to mongo")
	}
	defer func() {
		_ = instance.Helper.Client().Disconnect(context.Background())
	}()

	go instance.Readiness.Run(ctx, 10*time.Second)

	lockMgr := lock.NewManager(instance.Helper.Collection(cfg.Mongo.LockCollectionName), instance.HolderID, lock.SystemClock{})
	lockMgr.SetMetrics(chaosMetrics)

	runner, err := migrator.NewRunner(lockMgr, instance.Helper, exampleMigrations(), migrator.Options{
		LockName:                                cfg.Mongo.MigrationsLockName,
		HistoryCollectionName:                   cfg.Mongo.MigrationHistoryCollectionName,
		MigrationLockLeaseTime:                  cfg.Mongo.MigrationLockLeaseTime,
		UseTransactionsForMigrationsIfAvailable: cfg.Mongo.UseTransactionsForMigrationsIfAvailable,
	}, lock.SystemClock{}, log)
	if err != nil {
		log.WithError(err).Fatal("example: failed to build migration runner")
	}
	runner.SetMetrics(chaosMetrics)

	widgetDef, err := queue.NewDefinition[widgetCreated]("")
	if err != nil {
		log.WithError(err).Fatal("example: failed to build queue definition")
	}

	publisher, err := queue.NewPublisher[widgetCreated](widgetDef, instance.Helper, lock.SystemClock{})
	if err != nil {
		log.WithError(err).Fatal("example: failed to build publisher")
	}
	publisher.SetMetrics(chaosMetrics)

	subscription, err := queue.NewSubscription[widgetCreated](widgetDef, instance.Helper, queue.SubscriptionConfig[widgetCreated]{
		Factory: func(context.Context) (queue.Handler[widgetCreated], error) {
			return &widgetHandler{logger: log}, nil
		},
	}, lock.SystemClock{}, log)
	if err != nil {
		log.WithError(err).Fatal("example: failed to build subscription")
	}
	subscription.SetMetrics(chaosMetrics)

	aggregator := hostedservice.NewAggregator(
		runner,
		[]hostedservice.Subscription{subscription},
		hostedservice.Options{ApplyMigrationsOnStartup: cfg.Mongo.ApplyMigrationsOnStartup},
		log,
	)

	if err := aggregator.Starting(ctx); err != nil {
		log.WithError(err).Fatal("example: startup failed")
	}

	if err := aggregator.Started(ctx); err != nil {
		log.WithError(err).Fatal("example: failed to start subscriptions")
	}

	checker := examplehealth.NewChecker(instance.Helper.Client(), aggregator)

	healthMux := http.NewServeMux()
	healthMux.Handle("/healthz", health.NewHandler(checker))
	healthSrv := &http.Server{Addr: cfg.Health.Host + ":" + cfg.Health.Port, Handler: healthMux}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("example: health server exited")
		}
	}()

	metricsSrv, metricsLn, err := metrics.StartMetricsServer(&cfg.Metrics, commandMetrics.Handler())
	if err != nil {
		log.WithError(err).Fatal("example: failed to start metrics server")
	}

	go func() {
		if err := metricsSrv.Serve(metricsLn); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("example: metrics server exited")
		}
	}()

	grpcMetrics := metrics.NewGRPCServerMetrics(commandMetrics)
	grpcSrv := newGRPCServer(instance.Readiness, grpcMetrics)

	grpcLn, err := net.Listen("tcp", cfg.GRPC.Host+":"+cfg.GRPC.Port)
	if err != nil {
		log.WithError(err).Fatal("example: failed to bind gRPC listener")
	}

	go func() {
		if err := grpcSrv.Serve(grpcLn); err != nil {
			log.WithError(err).Error("example: gRPC server exited")
		}
	}()

	grpcConn, err := dialExampleService(grpcLn.Addr().String())
	if err != nil {
		log.WithError(err).Fatal("example: failed to dial example gRPC service")
	}
	defer func() { _ = grpcConn.Close() }()

	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				readinessGauge.Set("mongo", instance.Readiness.Ready())
				callHealthCheckOnce(ctx, grpcConn, log)

				if _, err := publisher.Publish(ctx, widgetCreated{
					WidgetID: fmt.Sprintf("w-%d", time.Now().UnixNano()),
					Name:     "example widget",
				}); err != nil {
					log.WithError(err).Warn("example: failed to publish sample widget")
				}
			}
		}
	}()

	<-ctx.Done()
	log.Info("example: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := aggregator.Stopping(shutdownCtx); err != nil {
		log.WithError(err).Error("example: error stopping subscriptions")
	}

	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
}

// exampleMigrations seeds a single example migration demonstrating the
// Helper/session contract an Apply function is given.
func exampleMigrations() []migrator.Migration {
	return []migrator.Migration{
		{
			ID:          "0001-create-widgets-index",
			Description: "ensure widgets collection has a unique widgetId index",
			Apply: func(ctx context.Context, h migrator.Helper, _ mongo.Session) error {
				_, err := h.Collection("widgets").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys:    bson.D{{Key: "widgetId", Value: 1}},
					Options: options.Index().SetUnique(true),
				})

				return err
			},
		},
	}
}
