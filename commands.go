package main

import (
	"context"
	"errors"
	"fmt"
	"go-food-ordering/controllers"
	"go-food-ordering/middleware"
	"go-food-ordering/models"
	"go-food-ordering/relay"
	"go-food-ordering/routes"
	"go-food-ordering/services"
	"go-food-ordering/store"
	"go-food-ordering/utils"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var configFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "foodapp",
		Short:        "Food ordering backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json or toml)")
	root.AddCommand(newServeCommand(), newAdminCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and tracking relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *utils.Config) error {
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{"environment": cfg.AppEnv, "log_level": cfg.LogLevel}).Info("Starting food ordering API")

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer disconnect(client, log)

	st := store.New(client.Database(cfg.MongoDB))
	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}

	var notifier services.Notifier
	if email := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender, log); email != nil {
		notifier = email
	}
	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	provider := utils.NewRazorpayProvider(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	fallback := models.Location{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}

	// Initialize services
	authService := services.NewAuthService(st.Users, tokens, cfg.AllowRoleSignup)
	catalogService := services.NewCatalogService(st.Foods)
	orderService := services.NewOrderService(st.Orders, st.Foods, st.Users, notifier, log.WithField("component", "orders"), fallback)
	paymentService := services.NewPaymentService(provider, st.Payments, st.Users, notifier, log.WithField("component", "payments"), cfg.RazorpayKeySecret)
	analyticsService := services.NewAnalyticsService(st.Orders, cfg.BestsellerLimit)
	hub := relay.NewHub(log.WithField("component", "relay"))

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	routes.RegisterRoutes(router, routes.Controllers{
		Users:     controllers.NewUserController(authService, log, cfg.Production()),
		Foods:     controllers.NewFoodController(catalogService, log),
		Orders:    controllers.NewOrderController(orderService, log),
		Payments:  controllers.NewPaymentController(paymentService, log),
		Analytics: controllers.NewAnalyticsController(analyticsService, log),
		Tracking:  controllers.NewTrackingController(orderService, hub, log, cfg.CORSOrigins),
		Health:    &controllers.HealthController{Ping: st.Ping},
	}, middleware.NewAuth(authService))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.AllowCredentials(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server is running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	drainNotifications(shutdownCtx, log, orderService, paymentService)
	return err
}

type waiter interface {
	Wait()
}

// drainNotifications waits for in-flight emails until ctx expires. The
// database connection must stay open meanwhile.
func drainNotifications(ctx context.Context, log logrus.FieldLogger, senders ...waiter) {
	done := make(chan struct{})
	go func() {
		for _, s := range senders {
			s.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Gave up waiting for pending notifications")
	}
}

func newAdminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Provision administrator accounts",
	}

	admin.AddCommand(&cobra.Command{
		Use:   "bootstrap",
		Short: "Create the account named by ADMIN_EMAIL/ADMIN_PASS if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(cmd.Context(), func(ctx context.Context, cfg *utils.Config, auth *services.AuthService) error {
				created, err := auth.BootstrapAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPass)
				if err != nil {
					return err
				}
				if created {
					cmd.Printf("Admin account created: %s\n", cfg.AdminEmail)
				} else {
					cmd.Printf("Account already exists: %s\n", cfg.AdminEmail)
				}
				return nil
			})
		},
	})

	admin.AddCommand(&cobra.Command{
		Use:   "promote <email>...",
		Short: "Give existing users the admin role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(cmd.Context(), func(ctx context.Context, cfg *utils.Config, auth *services.AuthService) error {
				var missing int
				for _, email := range args {
					err := auth.PromoteAdmin(ctx, email)
					switch {
					case services.IsKind(err, services.KindNotFound):
						missing++
						cmd.Printf("User not found: %s\n", email)
					case err != nil:
						return err
					default:
						cmd.Printf("%s is now an admin.\n", email)
					}
				}
				if missing > 0 {
					return fmt.Errorf("%d of %d users not found", missing, len(args))
				}
				return nil
			})
		},
	})
	return admin
}

func withAuthService(ctx context.Context, fn func(context.Context, *utils.Config, *services.AuthService) error) error {
	cfg, err := utils.LoadConfig(configFile)
	if err != nil {
		return err
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer disconnect(client, log)

	st := store.New(client.Database(cfg.MongoDB))
	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}
	auth := services.NewAuthService(st.Users, utils.NewTokenIssuer(cfg.JWTSecret), false)
	return fn(ctx, cfg, auth)
}

func disconnect(client *mongo.Client, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("Failed to disconnect from MongoDB")
	}
}
