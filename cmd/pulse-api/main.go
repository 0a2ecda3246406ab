package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/config"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/mail"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/messages"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/monitoring"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/server"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const reporterFlushTimeout = 2 * time.Second

var (
	cfgFile string
	envFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse-api",
		Short: "Pulse DJ ranking backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file loaded before configuration")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().StringSlice("allowed-origins", nil, "Origins allowed to call the API with credentials")
	cmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Storage driver (sqlite, mongo)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection URI")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-file", "", "Rotating log file path")
	cmd.PersistentFlags().String("tauth-signing-secret", "", "TAuth session signing secret (overrides env)")
	cmd.PersistentFlags().String("visitor-signing-secret", "", "Visitor token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.allowed_origins", "allowed-origins")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.file", "log-file")
	bindFlag(cmd, "tauth.signing_secret", "tauth-signing-secret")
	bindFlag(cmd, "visitor.signing_secret", "visitor-signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLoggerWithFile(appConfig.LogLevel, logging.FileConfig{
		Path:       appConfig.LogFile,
		MaxSizeMB:  appConfig.LogMaxSizeMB,
		MaxBackups: appConfig.LogMaxBackups,
		MaxAgeDays: appConfig.LogMaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	reporter, err := monitoring.NewReporter(monitoring.Config{
		DSN:         appConfig.SentryDSN,
		Environment: appConfig.SentryEnvironment,
		Release:     appConfig.Release,
	})
	if err != nil {
		return err
	}
	defer reporter.Flush(reporterFlushTimeout)

	stores, err := openStorage(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
		defer cancel()
		if err := stores.close(closeCtx); err != nil {
			logger.Warn("storage close failed", zap.Error(err))
		}
	}()

	idProvider := ids.NewUUIDProvider()
	realtime := server.NewRealtimeDispatcher()

	rankingService, err := ranking.NewService(ranking.ServiceConfig{
		Repository: stores.ranking,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
		Events:     realtime,
	})
	if err != nil {
		return err
	}

	fetcher, err := currency.NewHTTPFetcher(currency.HTTPFetcherConfig{
		BaseURL:           appConfig.CurrencyAPIURL,
		APIKey:            appConfig.CurrencyAPIKey,
		RequestsPerMinute: appConfig.CurrencyRequestsPerMinute,
		Timeout:           appConfig.CurrencyTimeout,
	})
	if err != nil {
		return err
	}
	currencyService, err := currency.NewService(currency.ServiceConfig{
		Store:   stores.rates,
		Fetcher: fetcher,
		Base:    appConfig.CurrencyBase,
		TTL:     appConfig.CurrencyTTL,
		Clock:   time.Now,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	pushService, err := push.NewService(push.ServiceConfig{
		Repository: stores.push,
		IDProvider: idProvider,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	contentService, err := content.NewService(content.ServiceConfig{
		Repository: stores.posts,
		IDProvider: idProvider,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.TAuthSigningKey),
		Issuer:        appConfig.TAuthIssuer,
		CookieName:    appConfig.TAuthCookieName,
	})
	if err != nil {
		return err
	}

	visitorIssuer, err := auth.NewVisitorTokenIssuer(auth.VisitorTokenIssuerConfig{
		SigningSecret: []byte(appConfig.VisitorSigningKey),
		TokenTTL:      appConfig.VisitorTokenTTL,
		IDProvider:    idProvider,
	})
	if err != nil {
		return err
	}

	memberService, err := users.NewService(users.ServiceConfig{
		Store:  stores.identities,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	catalog, err := messages.NewCatalog(appConfig.DefaultLanguage)
	if err != nil {
		return err
	}

	var contactSender server.ContactSender
	if appConfig.SMTPEnabled() {
		sender, err := mail.NewContactSender(mail.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
			To:       appConfig.SMTPTo,
		}, nil, logger)
		if err != nil {
			return err
		}
		contactSender = sender
	} else {
		logger.Info("contact form disabled: smtp is not configured")
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Ranking:        rankingService,
		Currency:       currencyService,
		Push:           pushService,
		Content:        contentService,
		Sessions:       sessionValidator,
		Visitors:       visitorIssuer,
		Members:        memberService,
		Contact:        contactSender,
		Catalog:        catalog,
		Reporter:       reporter,
		Realtime:       realtime,
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("database_driver", appConfig.DatabaseDriver),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
