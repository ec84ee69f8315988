package cmd

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	coreconfig "github.com/blogsmith/blogsmith/core/config"
	"github.com/blogsmith/blogsmith/pkg/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blogsmith",
	Short: "AI blog content engine with scheduled auto-publishing",
	Long: `Blogsmith generates AI blog content for subscribed users and
publishes it to their WordPress sites on their configured weekly schedule.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringP("port", "p", "", "override listen port | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose logging | example: --debug=true")

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig loads the structured configuration and applies overrides
// from viper-resolved settings and persistent flags.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if envBasicAuth := viper.GetString("app_basic_auth"); envBasicAuth != "" {
		cfg.App.BasicAuth = strings.Split(envBasicAuth, ",")
	}

	if flagPort, _ := rootCmd.PersistentFlags().GetString("port"); flagPort != "" {
		cfg.App.Port = flagPort
	}
	if flagDebug, _ := rootCmd.PersistentFlags().GetBool("debug"); flagDebug {
		cfg.App.Debug = true
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
