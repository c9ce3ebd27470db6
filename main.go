package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/nanalyzer-go/api"
	"github.com/moyoez/nanalyzer-go/api/notifyhub"
	"github.com/moyoez/nanalyzer-go/metrics"
	"github.com/moyoez/nanalyzer-go/notify"
	"github.com/moyoez/nanalyzer-go/share"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/transfer"
	"github.com/moyoez/nanalyzer-go/uploader"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)

	notify.SetUseNotify(!cfg.SkipNotify)
	notify.SetSocketPath(appCfg.NotifySocketPath)
	hub := notifyhub.New()
	notify.SetHub(hub)

	metrics.Init(tool.DefaultLogger)

	client, err := transfer.NewClient(transfer.Config{
		BaseURL:           appCfg.APIBaseURL,
		UserID:            appCfg.UserID,
		HTTPClient:        tool.GetHttpClient(),
		RequestsPerSecond: appCfg.RequestsPerSecond,
		Logger:            tool.DefaultLogger,
	})
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to create backend client: %v", err)
	}
	if appCfg.UserID == "" {
		tool.DefaultLogger.Warnf("No user id configured, uploads will be rejected until %s, -useUserID or /user/register sets one", tool.UserIDEnv)
	}

	uploads := uploader.NewController(api.UploadTransport(),
		uploader.WithChunkSize(appCfg.ChunkSizeBytes),
		uploader.WithLogger(tool.DefaultLogger),
		uploader.WithObserver(notify.UploadObserver()),
		uploader.WithOwner(api.UploadOwner),
	)

	api.SetBackend(client)
	api.SetUploadController(uploads)
	api.SetTracker(share.NewTracker(time.Duration(appCfg.TrackerTTLMinutes) * time.Minute))
	api.SetNotifyHub(hub)

	tool.DefaultLogger.Infof("Analysis backend: %s", client.BaseURL())
	apiServer := api.NewServer(appCfg.Port)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	tool.DefaultLogger.Info("Shutting down")
	uploads.Cancel()
	if err := apiServer.Shutdown(context.Background()); err != nil {
		tool.DefaultLogger.Errorf("API server shutdown failed: %v", err)
	}
}
