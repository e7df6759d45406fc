package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	logPath = configVar[string]{
		envKey:       "SERVER_LOG_PATH",
		flagKey:      "log-path",
		defaultValue: "",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	s3Endpoint = configVar[string]{
		envKey:       "S3_ENDPOINT",
		flagKey:      "s3-endpoint",
		defaultValue: "",
	}
	s3Region = configVar[string]{
		envKey:       "S3_REGION",
		flagKey:      "s3-region",
		defaultValue: "us-east-1",
	}
	s3Bucket = configVar[string]{
		envKey:       "S3_BUCKET",
		flagKey:      "s3-bucket",
		defaultValue: "",
	}
	s3AccessKey = configVar[string]{
		envKey:       "S3_ACCESS_KEY",
		flagKey:      "s3-access-key",
		defaultValue: "",
	}
	s3SecretKey = configVar[string]{
		envKey:       "S3_SECRET_KEY",
		flagKey:      "s3-secret-key",
		defaultValue: "",
	}
	videoKeyPrefix = configVar[string]{
		envKey:       "VIDEO_KEY_PREFIX",
		flagKey:      "video-key-prefix",
		defaultValue: "videos/",
	}
	playbackExpiry = configVar[int]{
		envKey:       "PLAYBACK_EXPIRY_SECONDS",
		flagKey:      "playback-expiry-seconds",
		defaultValue: 3600,
	}
	uploadExpiry = configVar[int]{
		envKey:       "UPLOAD_EXPIRY_SECONDS",
		flagKey:      "upload-expiry-seconds",
		defaultValue: 120,
	}
	maxUploadBytes = configVar[int64]{
		envKey:       "MAX_UPLOAD_BYTES",
		flagKey:      "max-upload-bytes",
		defaultValue: 1 << 30,
	}
	videoCacheTTL = configVar[int]{
		envKey:       "VIDEO_CACHE_TTL_SECONDS",
		flagKey:      "video-cache-ttl-seconds",
		defaultValue: 24 * 3600,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(logPath.flagKey, logPath.defaultValue, "Log file path, empty for stdout")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(s3Endpoint.flagKey, s3Endpoint.defaultValue, "S3 endpoint")
	pflag.String(s3Region.flagKey, s3Region.defaultValue, "S3 region")
	pflag.String(s3Bucket.flagKey, s3Bucket.defaultValue, "S3 bucket with video objects")
	pflag.String(s3AccessKey.flagKey, s3AccessKey.defaultValue, "S3 access key")
	pflag.String(s3SecretKey.flagKey, s3SecretKey.defaultValue, "S3 secret key")
	pflag.String(videoKeyPrefix.flagKey, videoKeyPrefix.defaultValue, "Object key prefix for video uploads")
	pflag.Int(playbackExpiry.flagKey, playbackExpiry.defaultValue, "Playback URL lifetime in seconds")
	pflag.Int(uploadExpiry.flagKey, uploadExpiry.defaultValue, "Upload URL lifetime in seconds")
	pflag.Int64(maxUploadBytes.flagKey, maxUploadBytes.defaultValue, "Maximum accepted upload size in bytes")
	pflag.Int(videoCacheTTL.flagKey, videoCacheTTL.defaultValue, "Cached video record lifetime in seconds")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(logPath.flagKey, logPath.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(s3Endpoint.flagKey, s3Endpoint.envKey)
	viper.BindEnv(s3Region.flagKey, s3Region.envKey)
	viper.BindEnv(s3Bucket.flagKey, s3Bucket.envKey)
	viper.BindEnv(s3AccessKey.flagKey, s3AccessKey.envKey)
	viper.BindEnv(s3SecretKey.flagKey, s3SecretKey.envKey)
	viper.BindEnv(videoKeyPrefix.flagKey, videoKeyPrefix.envKey)
	viper.BindEnv(playbackExpiry.flagKey, playbackExpiry.envKey)
	viper.BindEnv(uploadExpiry.flagKey, uploadExpiry.envKey)
	viper.BindEnv(maxUploadBytes.flagKey, maxUploadBytes.envKey)
	viper.BindEnv(videoCacheTTL.flagKey, videoCacheTTL.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(logPath.flagKey, logPath.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(s3Endpoint.flagKey, s3Endpoint.defaultValue)
	viper.SetDefault(s3Region.flagKey, s3Region.defaultValue)
	viper.SetDefault(s3Bucket.flagKey, s3Bucket.defaultValue)
	viper.SetDefault(s3AccessKey.flagKey, s3AccessKey.defaultValue)
	viper.SetDefault(s3SecretKey.flagKey, s3SecretKey.defaultValue)
	viper.SetDefault(videoKeyPrefix.flagKey, videoKeyPrefix.defaultValue)
	viper.SetDefault(playbackExpiry.flagKey, playbackExpiry.defaultValue)
	viper.SetDefault(uploadExpiry.flagKey, uploadExpiry.defaultValue)
	viper.SetDefault(maxUploadBytes.flagKey, maxUploadBytes.defaultValue)
	viper.SetDefault(videoCacheTTL.flagKey, videoCacheTTL.defaultValue)

	return &app.AppConfig{
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		LogPath:        viper.GetString(logPath.flagKey),
		RedisHost:      viper.GetString(redisHost.flagKey),
		RedisPort:      viper.GetInt(redisPort.flagKey),
		RedisPassword:  viper.GetString(redisPassword.flagKey),
		S3Endpoint:     viper.GetString(s3Endpoint.flagKey),
		S3Region:       viper.GetString(s3Region.flagKey),
		S3Bucket:       viper.GetString(s3Bucket.flagKey),
		S3AccessKey:    viper.GetString(s3AccessKey.flagKey),
		S3SecretKey:    viper.GetString(s3SecretKey.flagKey),
		VideoKeyPrefix: viper.GetString(videoKeyPrefix.flagKey),
		PlaybackExpiry: viper.GetInt(playbackExpiry.flagKey),
		UploadExpiry:   viper.GetInt(uploadExpiry.flagKey),
		MaxUploadBytes: viper.GetInt64(maxUploadBytes.flagKey),
		VideoCacheTTL:  viper.GetInt(videoCacheTTL.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
