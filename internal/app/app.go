package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/watchroom/server/internal/controller"
	"github.com/watchroom/server/internal/media"
	connection "github.com/watchroom/server/internal/repository/connection/inmemory"
	roominmemory "github.com/watchroom/server/internal/repository/room/inmemory"
	videoredis "github.com/watchroom/server/internal/repository/video/redis"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/randstr"
	"github.com/watchroom/server/pkg/redisclient"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type AppConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	LogLevel       string `json:"log_level"`
	LogPath        string `json:"log_path"`
	RedisHost      string `json:"redis_host"`
	RedisPort      int    `json:"redis_port"`
	RedisPassword  string `json:"-"`
	S3Endpoint     string `json:"s3_endpoint"`
	S3Region       string `json:"s3_region"`
	S3Bucket       string `json:"s3_bucket"`
	S3AccessKey    string `json:"-"`
	S3SecretKey    string `json:"-"`
	VideoKeyPrefix string `json:"video_key_prefix"`
	PlaybackExpiry int    `json:"playback_expiry_seconds"`
	UploadExpiry   int    `json:"upload_expiry_seconds"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	VideoCacheTTL  int    `json:"video_cache_ttl_seconds"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535")
	}
	if cfg.S3Bucket == "" {
		return fmt.Errorf("s3 bucket must be set")
	}
	if cfg.PlaybackExpiry < 60 {
		return fmt.Errorf("playback expiry must be at least 60 seconds")
	}
	if cfg.UploadExpiry < 30 {
		return fmt.Errorf("upload expiry must be at least 30 seconds")
	}
	if cfg.MaxUploadBytes < 1 {
		return fmt.Errorf("max upload bytes must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Endpoint:         aws.String(cfg.S3Endpoint),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create s3 session: %w", err)
	}

	generator := randstr.New([]byte(idAlphabet))

	videoRepo := videoredis.NewRepo(rc, time.Duration(cfg.VideoCacheTTL)*time.Second)
	resolver := media.NewResolver(media.NewS3Backend(sess, cfg.S3Bucket), videoRepo, generator, media.Config{
		KeyPrefix:      cfg.VideoKeyPrefix,
		PlaybackExpiry: time.Duration(cfg.PlaybackExpiry) * time.Second,
		UploadExpiry:   time.Duration(cfg.UploadExpiry) * time.Second,
		RefreshBuffer:  60 * time.Second,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)

	roomRepo := roominmemory.NewRepo()
	connectionRepo := connection.NewRepo()
	roomService := room.NewService(roomRepo, connectionRepo, resolver, logger)
	controller := controller.NewController(roomService, resolver, generator, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
