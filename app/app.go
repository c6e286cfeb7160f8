package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bookvault/inventory-service/config"
	"github.com/bookvault/inventory-service/internal/handler"
	"github.com/bookvault/inventory-service/internal/repository"
	"github.com/bookvault/inventory-service/internal/server"
	"github.com/bookvault/inventory-service/internal/service"
	"github.com/bookvault/inventory-service/internal/uploader"
	"github.com/bookvault/inventory-service/migrations"
	"github.com/bookvault/inventory-service/pkg/kafka"
	"github.com/bookvault/inventory-service/pkg/logger"
	"github.com/bookvault/inventory-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "inventory")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	up, err := uploader.NewCloudinary(cfg.Cloudinary, log)
	if err != nil {
		log.Fatal("uploader init", zap.Error(err))
	}

	var publisher service.Publisher = kafka.NopPublisher{}
	if len(cfg.Kafka.Addrs) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close()
		publisher = kafka.NewPublisher(producer)
	}

	svc := service.NewService(repo, up, publisher, log)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
