package bootstrap

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/cmd/flags"
	"github.com/vendo-org/vendo/internal/conf"
	"github.com/vendo-org/vendo/pkg/utils"
)

func InitConfig() {
	configPath := flags.Config
	if configPath == "" {
		configPath = filepath.Join(flags.DataDir, "config.json")
	}
	conf.Conf = conf.DefaultConfig(flags.DataDir)

	if _, err := os.Stat(configPath); err == nil {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			log.Fatalf("failed read config file: %s", err.Error())
		}
		if err := utils.Json.Unmarshal(raw, conf.Conf); err != nil {
			log.Fatalf("failed parse config file: %s", err.Error())
		}
	} else {
		log.Infof("no config file at %s, using defaults", configPath)
		if raw, err := utils.Json.MarshalIndent(conf.Conf, "", "  "); err == nil {
			_ = os.MkdirAll(filepath.Dir(configPath), 0o755)
			_ = os.WriteFile(configPath, raw, 0o644)
		}
	}

	if err := env.ParseWithOptions(conf.Conf, env.Options{Prefix: "VENDO_"}); err != nil {
		log.Fatalf("failed parse environment: %s", err.Error())
	}
}
