package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/wppanel/internal/api"
	"github.com/edvin/wppanel/internal/backup"
	"github.com/edvin/wppanel/internal/certbot"
	"github.com/edvin/wppanel/internal/command"
	"github.com/edvin/wppanel/internal/config"
	"github.com/edvin/wppanel/internal/core"
	"github.com/edvin/wppanel/internal/crypto"
	"github.com/edvin/wppanel/internal/db"
	"github.com/edvin/wppanel/internal/dbadmin"
	"github.com/edvin/wppanel/internal/logging"
	"github.com/edvin/wppanel/internal/metrics"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/offsite"
	"github.com/edvin/wppanel/internal/scheduler"
	"github.com/edvin/wppanel/internal/sysstats"
	"github.com/edvin/wppanel/internal/wordpress"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "hash-password" {
		hashPassword(os.Args[2:])
		return
	}

	configFlag := flag.String("config", "", "Optional YAML config file")
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLogger(cfg)
	defer logCloser.Close()

	if *migrateFlag {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to panel database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool)

	mysqlDB, err := dbadmin.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	defer mysqlDB.Close()

	clientConn, err := dbadmin.ClientConnFromDSN(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid mysql dsn")
	}

	runner := command.NewExecRunner(logger, cfg.CommandTimeout)
	fetcher := wordpress.NewFetcher(logger, cfg.DownloadTimeout)

	var uploader core.OffsiteUploader
	if cfg.OffsiteEnabled() {
		uploader = offsite.NewUploader(logger, cfg)
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("offsite backups enabled")
	}

	services := core.NewServices(core.Deps{
		DB:          pool,
		Logger:      logger,
		Files:       wordpress.NewInstaller(logger, fetcher, cfg.WordPressDir, cfg.WordPressDownloadURL, cfg.WPDBHost),
		Provisioner: dbadmin.NewProvisioner(logger, mysqlDB, cfg.MySQLUserHost, cfg.CommandTimeout),
		Dumper:      dbadmin.NewDumper(logger, runner, clientConn),
		Certs:       certbot.NewClient(logger, runner, cfg.CertbotPlugin, cfg.SSLEmail),
		Backups:     backup.NewStore(logger, cfg.BackupDir),
		Uploader:    uploader,
		System:      sysstats.NewCollector("/"),
		Verifier:    core.NewCredentialVerifier(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash),
		Auth: core.AuthConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
			TTL:    cfg.TokenTTL,
		},
		SettingDefaults:  settingDefaults(cfg),
		DefaultRetention: cfg.BackupRetentionDays,
	})

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(logger, cfg.JobTimeout)
		err := scheduler.RegisterJobs(sched, scheduler.Schedules{
			BackupCleanup: cfg.BackupCleanupSchedule,
			Backup:        cfg.BackupSchedule,
			SSLRenew:      cfg.SSLRenewSchedule,
		}, services.Backup, services.SSL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to register scheduled jobs")
		}
		sched.Start()
	}

	srv := api.NewServer(logger, pool, services, sched)

	// Site creation and restores run inside the request, so writes get the
	// job timeout instead of the usual 15s.
	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.JobTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting panel API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
}

func settingDefaults(cfg *config.Config) map[string]string {
	return map[string]string{
		model.SettingAdminEmail:          cfg.SSLEmail,
		model.SettingBackupRetentionDays: strconv.Itoa(cfg.BackupRetentionDays),
		model.SettingAutoBackup:          strconv.FormatBool(cfg.AutoBackup),
		model.SettingAutoSSL:             "false",
		model.SettingSecurityLevel:       "medium",
	}
}

func hashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := fs.String("password", "", "Password to hash (read from stdin when empty)")
	fs.Parse(args)

	pw := *password
	if pw == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "error: no password given")
			fmt.Fprintln(os.Stderr, "usage: panel-api hash-password [--password <password>] < password.txt")
			os.Exit(1)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if pw == "" {
		fmt.Fprintln(os.Stderr, "error: password must not be empty")
		os.Exit(1)
	}

	hash, err := crypto.HashPassword(pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
