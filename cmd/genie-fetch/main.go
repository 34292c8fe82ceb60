package main

import (
	"net/http"
	"strings"

	"github.com/genie-oss/agent/pkg/cache"
	"github.com/genie-oss/agent/pkg/locks"
	"github.com/genie-oss/agent/pkg/log"
	"github.com/genie-oss/agent/pkg/resource"
	"github.com/genie-oss/agent/pkg/utils"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var config Config

var rootCmd = &cobra.Command{
	Use:   "genie-fetch uri=target [uri=target ...]",
	Short: "Materialize remote resources onto local disk through the agent cache",
	Args:  cobra.MinimumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.SetConfigName("agent.yaml")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/genie/")
		viper.AddConfigPath("$HOME/.config/genie")
		viper.SetEnvPrefix("genie")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			log.Debug(err)
		}

		if err := utils.UnmarshalConfig(*viper.GetViper(), &config); err != nil {
			log.Fatal(err)
		}

		switch {
		case config.Verbosity >= 2:
			log.SetLevel(log.TraceLevel)
		case config.Verbosity >= 1:
			log.SetLevel(log.DebugLevel)
		}
		log.Info("Log verbosity:", log.GetLevel())
	},
	Run: func(cmd *cobra.Command, args []string) {
		config.Log()

		fetches := make(map[string]string, len(args))
		for _, arg := range args {
			uri, target, found := strings.Cut(arg, "=")
			if !found || uri == "" || target == "" {
				log.Fatalf("malformed argument %q, expected uri=target", arg)
			}
			fetches[uri] = target
		}

		fs := afero.NewOsFs()

		if err := fs.MkdirAll(config.CacheDir, 0755); err != nil {
			log.Fatal(err)
		}

		executor := cache.NewSerialCleanupExecutor()
		defer executor.Stop()

		loader := resource.NewLoader(fs, &http.Client{Timeout: config.Timeout})

		fetchingCache, err := cache.NewFetchingCache(
			fs,
			loader,
			locks.NewFileLockFactory(),
			executor,
			config.CacheDir,
		)
		if err != nil {
			log.Fatal(err)
		}

		session, _ := uuid.NewRandom()
		log.Infof("Fetch session %s using cache %s", session, config.CacheDir)

		concurrency := config.Concurrency
		if concurrency < 1 {
			concurrency = 1
		}

		var eg errgroup.Group
		eg.SetLimit(concurrency)

		for uri, target := range fetches {
			uri, target := uri, target
			eg.Go(func() error {
				log.Debugf("Fetching %s into %s", uri, target)
				return fetchingCache.Get(uri, target)
			})
		}

		if err := eg.Wait(); err != nil {
			log.DebugError(err)
			log.Fatal(err)
		}

		stats := fetchingCache.Statistics()
		log.Infof(
			"Fetched %d resources: %d hits, %d misses, %d evictions",
			len(fetches), stats.Hits, stats.Misses, stats.Evictions,
		)
	},
}

func init() {
	rootCmd.Flags().StringP("cache-dir", "C", "/tmp/genie/cache", "Path to the resource cache directory")
	rootCmd.Flags().IntP("concurrency", "j", 4, "Maximum number of concurrent fetches")
	rootCmd.Flags().StringP("timeout", "t", "0", "HTTP timeout, 0 to disable")
	rootCmd.Flags().CountP("verbose", "v", "Verbosity (repeatable)")

	viper.BindPFlag("cache_dir", rootCmd.Flags().Lookup("cache-dir"))
	viper.BindPFlag("concurrency", rootCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("verbosity", rootCmd.Flags().Lookup("verbose"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
