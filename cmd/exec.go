package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trade-client/config"
	"trade-client/internal/auth"
	"trade-client/internal/chat"
	"trade-client/internal/gateway"
	"trade-client/internal/handlers"
	"trade-client/internal/payment"
	"trade-client/internal/payment/nicegate"
	"trade-client/utils"
)

// Start wires the trade client together and runs it headless: a session
// store in Redis, the credentialed gateway, the chat subscriber, and the
// payment return listener.
func Start() error {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store := auth.NewRedisStore(redisClient, cfg.SessionKey)

	// Gateway + auth
	gw := gateway.New(&gateway.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
	}, store)
	authService := auth.NewService(gw, store)

	user, err := authService.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		email, password := os.Getenv("LOGIN_EMAIL"), os.Getenv("LOGIN_PASSWORD")
		if email == "" {
			return errors.New("no stored session and no LOGIN_EMAIL set")
		}
		user, err = authService.Login(ctx, email, password)
		if err != nil {
			return err
		}
	}
	slog.Info("session ready", "userId", user.ID, "username", user.Username)

	// Chat subscriber
	subscriber := chat.NewSubscriber(ctx, &chat.SubscriberConfig{
		SubscribeKey: cfg.PubNubSubscribeKey,
		PublishKey:   cfg.PubNubPublishKey,
		SecretKey:    cfg.PubNubSecretKey,
		CipherKey:    cfg.PubNubCipherKey,
		UserID:       cfg.PubNubUserID,
	})

	rooms, err := chat.Rooms(ctx, gw, user.ID)
	if err != nil {
		slog.Error("chat.Rooms", "error", err)
	}
	for _, room := range rooms {
		subscriber.Join(room.ID)
	}

	bridge := chat.NewBridge(gw, nil)
	go watchMessages(ctx, bridge, subscriber, user.ID)

	// Payment handoff + return listener
	provider := nicegate.New(&nicegate.Config{
		BaseURL:   cfg.ProviderBaseURL,
		ClientID:  cfg.ProviderClientID,
		SecretKey: cfg.ProviderSecretKey,
		HMACKey:   cfg.ProviderHMACKey,
	})
	handoff := payment.NewHandoff(gw, provider, nil)
	returnHandler := handlers.NewPaymentReturnHandler(handoff)

	e := echo.New()
	e.GET("/payments/return", returnHandler.HandleReturn)
	if cfg.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go handleShutdown(cancel, srv)

	slog.Info("return listener up", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchMessages drains the subscriber and logs action offers addressed to
// this user.
func watchMessages(ctx context.Context, bridge *chat.Bridge, subscriber *chat.Subscriber, userID int64) {
	for {
		select {
		case msg, ok := <-subscriber.Messages():
			if !ok {
				return
			}
			actions := bridge.Present(msg, userID)
			if len(actions) == 0 {
				continue
			}
			for _, a := range actions {
				slog.Info("action offered", "room", msg.ChatroomID, "message", msg.ID, "code", a.ActionCode, "label", a.Label)
			}

		case <-ctx.Done():
			return
		}
	}
}

func handleShutdown(cancel context.CancelFunc, srv *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
