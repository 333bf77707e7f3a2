package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/jmcleod/ironlock/activity"
	"github.com/jmcleod/ironlock/api"
	"github.com/jmcleod/ironlock/auth"
	"github.com/jmcleod/ironlock/internal/config"
	"github.com/jmcleod/ironlock/keys"
	"github.com/jmcleod/ironlock/monitor"
	"github.com/jmcleod/ironlock/storage"
	bboltstorage "github.com/jmcleod/ironlock/storage/bbolt"
	pgstorage "github.com/jmcleod/ironlock/storage/postgres"
	"github.com/jmcleod/ironlock/views"
)

var (
	runUser   string
	runPin    string
	runSetPin string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a client session and lock it when idle",
	Long: `Starts an authenticated client session holding a decryption key and runs the
inactivity monitor until the session is logged out or the process is stopped.

With --pin the key is unlocked from the stored PIN-protected key; otherwise a
fresh key is generated. --set-pin stores the session key protected by a PIN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer memguard.Purge()
		return runSession(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runUser, "user", os.Getenv("USER"), "User the session is authenticated as")
	runCmd.Flags().StringVar(&runPin, "pin", "", "Unlock the stored PIN-protected key with this PIN")
	runCmd.Flags().StringVar(&runSetPin, "set-pin", "", "Protect the session key with this PIN and store it")
}

func runSession(parent context.Context, cfg *config.Config) error {
	logger := slog.Default()

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	keySvc := keys.NewService()
	authState := auth.NewState()
	tracker := views.NewTracker()
	recorder := activity.NewRecorder(store)

	pinEnv, err := unlock(ctx, store, keySvc)
	if err != nil {
		return err
	}
	sess, err := authState.Authenticate(runUser)
	if err != nil {
		return err
	}
	if err := seedDefaultTimeout(ctx, store, cfg); err != nil {
		return err
	}
	if _, err := recorder.Touch(ctx); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	loggedOut := make(chan struct{})
	var logoutOnce sync.Once
	collab := monitor.Collaborators{
		Store: store,
		Keys:  keySvc,
		Auth:  authState,
		Views: tracker,
		Logout: func(ctx context.Context) error {
			cur, _ := authState.Current()
			gen := keySvc.Generation()
			keySvc.Lock()
			authState.End()
			logoutOnce.Do(func() {
				logger.Info("session logged out",
					"user", cur.UserID,
					"session_id", cur.ID,
					"key_generation", gen,
				)
				close(loggedOut)
			})
			return nil
		},
	}
	if cfg.Lock.TimeoutOverride != nil {
		collab.Policy = monitor.FixedOverride(*cfg.Lock.TimeoutOverride)
	}
	m, err := monitor.New(collab,
		monitor.WithInterval(cfg.Lock.CheckInterval),
		monitor.WithLogger(logger),
		monitor.WithMetrics(monitor.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}
	defer m.Stop()

	if runSetPin != "" {
		pinEnv, err = keySvc.ProtectWithPin(ctx, runSetPin)
		if err != nil {
			return err
		}
		if err := storage.SaveEnvelope(ctx, store, storage.KeyProtectedPin, pinEnv); err != nil {
			return err
		}
	}
	m.SetPinProtectedKey(pinEnv)

	var server *http.Server
	done := make(chan error, 1)
	if cfg.API.Enabled {
		a := api.New(m, recorder, tracker, api.WithLogger(logger))
		server = &http.Server{
			Addr:              cfg.API.Addr,
			Handler:           a.Handler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("api server failed: %w", err)
				return
			}
			done <- nil
		}()
	}

	printBanner()
	logger.Info("session started",
		"user", sess.UserID,
		"session_id", sess.ID,
		"storage", cfg.Storage.Backend,
		"check_interval", cfg.Lock.CheckInterval.String(),
		"api", cfg.API.Enabled,
	)

	m.Initialize(ctx, true)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-loggedOut:
	case runErr = <-done:
	}

	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("api server shutdown failed: %w", err)
		}
	}
	return runErr
}

type closableStore interface {
	storage.Store
	Close() error
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (closableStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return pgstorage.NewStoreFromDSN(ctx, cfg.Storage.PostgresDSN, cfg.Storage.Namespace)
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return bboltstorage.NewStoreFromFile(filepath.Join(cfg.DataDir, "ironlock.db"), &bbolt.Options{Timeout: time.Second})
	}
}

// unlock makes a key resident, from the stored PIN-protected key when a PIN
// was given and a fresh random key otherwise. It returns the envelope used,
// if any.
func unlock(ctx context.Context, store storage.Store, keySvc *keys.Service) (*storage.Envelope, error) {
	if runPin == "" {
		keySvc.GenerateKey()
		return nil, nil
	}
	env, err := storage.GetEnvelope(ctx, store, storage.KeyProtectedPin)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, fmt.Errorf("no PIN-protected key stored")
	}
	if err := keySvc.UnlockWithPin(ctx, env, runPin); err != nil {
		return nil, err
	}
	return env, nil
}

// seedDefaultTimeout stores the configured default timeout when no
// preference exists yet.
func seedDefaultTimeout(ctx context.Context, store storage.Store, cfg *config.Config) error {
	if cfg.Lock.DefaultTimeout == nil {
		return nil
	}
	_, ok, err := storage.GetInt(ctx, store, storage.KeyLockOption)
	if err != nil || ok {
		return err
	}
	return storage.SaveInt(ctx, store, storage.KeyLockOption, int64(*cfg.Lock.DefaultTimeout))
}
