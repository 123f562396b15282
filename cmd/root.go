// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/pcapfile/common"
	"github.com/packetd/pcapfile/confengine"
	"github.com/packetd/pcapfile/logger"
)

type globalCmdConfig struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
}

var globalConfig globalCmdConfig

var rootCmd = &cobra.Command{
	Use:           common.App,
	Short:         "Inspect, dump and rewrite classic pcap capture files",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return setupLogger(cfg)
	},
}

// loadConfig 加载 --config 指定的配置文件 未指定时返回空配置
func loadConfig() (*confengine.Config, error) {
	if globalConfig.ConfigPath == "" {
		return confengine.Empty(), nil
	}
	return confengine.LoadConfigPath(globalConfig.ConfigPath)
}

func setupLogger(cfg *confengine.Config) error {
	var opts logger.Options
	if err := cfg.UnpackChild("logger", &opts); err != nil {
		return err
	}
	if globalConfig.LogLevel != "" {
		opts.Level = globalConfig.LogLevel
	}
	if globalConfig.LogFile != "" {
		opts.Filename = globalConfig.LogFile
	}
	logger.SetOptions(opts)
	return nil
}

// Execute 执行命令行入口
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&globalConfig.LogLevel, "log.level", "", "Logger level [debug|info|warn|error]")
	rootCmd.PersistentFlags().StringVar(&globalConfig.LogFile, "log.file", "", "Path to log file, defaults to stderr")
}
