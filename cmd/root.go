// Copyright 2025 CacheFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachefs/pagecache/cfg"
	"github.com/cachefs/pagecache/internal/logger"
)

var (
	cfgFile string
	config  cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "pagecache",
	Short: "Development tooling for the adaptive read-ahead engine",
	Long: `pagecache bundles development tools for the page-cache read-ahead
engine, most notably a trace simulator that replays access patterns through
the full prefetch stack.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file.")
	if err := cfg.BindFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "error while binding flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error while reading the config file: %v\n", err)
			os.Exit(1)
		}
	}
	err := viper.Unmarshal(&config, viper.DecodeHook(cfg.DecodeHook()), func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while unmarshaling the config: %v\n", err)
		os.Exit(1)
	}
	if err = cfg.ValidateConfig(&config); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if err = cfg.Rationalize(&config); err != nil {
		fmt.Fprintf(os.Stderr, "error while rationalizing config: %v\n", err)
		os.Exit(1)
	}
	err = logger.Init(logger.Config{
		FilePath: string(config.Logging.FilePath),
		Format:   config.Logging.Format,
		Severity: string(config.Logging.Severity),
		LogRotate: logger.RotateConfig{
			MaxSizeMB:   config.Logging.LogRotate.MaxFileSizeMb,
			BackupCount: config.Logging.LogRotate.BackupFileCount,
			Compress:    config.Logging.LogRotate.Compress,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while initializing logger: %v\n", err)
		os.Exit(1)
	}
}
