package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/cadence/engine"
	"github.com/hrygo/cadence/engine/config"
	"github.com/hrygo/cadence/engine/metrics"
	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/internal/version"
	"github.com/hrygo/cadence/store"
	"github.com/hrygo/cadence/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: `An adaptive scheduling and energy-learning engine. Learns when you have energy and suggests when to do what.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Only load .env for direct binary execution (not when running as systemd service)
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:      viper.GetString("mode"),
			Addr:      viper.GetString("addr"),
			Port:      viper.GetInt("port"),
			Data:      viper.GetString("data"),
			Driver:    viper.GetString("driver"),
			DSN:       viper.GetString("dsn"),
			RedisAddr: viper.GetString("redis-addr"),
			Timezone:  viper.GetString("timezone"),
			Version:   version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}
		defer dbDriver.Close()

		cfg := config.Default()
		if instanceProfile.ConfigPath != "" {
			cfg, err = config.Load(instanceProfile.ConfigPath)
			if err != nil {
				slog.Error("failed to load engine config", "path", instanceProfile.ConfigPath, "error", err)
				return
			}
		}

		m := metrics.New(nil)
		storeInstance := store.New(dbDriver, instanceProfile)
		eng := engine.New(storeInstance, instanceProfile, cfg, m, slog.Default())

		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			// Readiness is a storage round trip, not just process liveness.
			if _, err := eng.GetEnergyPattern(r.Context(), "healthcheck"); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintln(w, "storage unavailable")
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		// The default signal sent by the `kill` command is SIGTERM,
		// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
		signal.Notify(c, terminationSignals...)

		go func() {
			<-c
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("failed to shut down server", "error", err)
			}
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			return
		}

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28480)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28480, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "storage driver (sqlite, redis, memory)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("redis-addr", "", "redis host:port, required for the redis driver")
	rootCmd.PersistentFlags().String("timezone", "", "fallback IANA timezone for users without one")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "redis-addr", "timezone"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("cadence")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Cadence %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Storage driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("Metrics at: http://localhost:%d/metrics\n", profile.Port)
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
