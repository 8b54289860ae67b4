package main

import (
	"flag"
	"strconv"

	"github.com/Apiara/ControlMBridge/infrastructure/main/config"
	"github.com/Apiara/ControlMBridge/infrastructure/minerva"
	"go.uber.org/zap"
)

/*
Config Format
--------------
listen_port = int
debug = bool
env_file = string

# Definitions go to redis when redis_address is set, to storage_dir otherwise
storage_dir = string
redis_address = string

[environments]
  DEV = "https://controlms1de01:8446/automation-api/deploy"
  QA = "https://controlms2qa01:8446/automation-api/deploy"
*/

type minervaConfig struct {
	Port           int               `toml:"listen_port"`
	Debug          bool              `toml:"debug"`
	EnvFile        string            `toml:"env_file"`
	StorageDir     string            `toml:"storage_dir"`
	RedisDBAddress string            `toml:"redis_address"`
	Environments   map[string]string `toml:"environments"`
}

func main() {
	fnamePtr := flag.String("config", "", "TOML configuration file path")
	flag.Parse()

	var conf minervaConfig
	if err := config.ReadTOMLConfig(*fnamePtr, &conf); err != nil {
		panic(err)
	}
	err := config.ApplyEnvOverrides(conf.EnvFile, map[string]*string{
		"MINERVA_STORAGE_DIR":   &conf.StorageDir,
		"MINERVA_REDIS_ADDRESS": &conf.RedisDBAddress,
	})
	if err != nil {
		panic(err)
	}
	if len(conf.Environments) == 0 {
		conf.Environments = minerva.DefaultEnvironments()
	}
	listenAddr := ":" + strconv.Itoa(conf.Port)

	logger, err := config.NewLogger(conf.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Create definition store
	var store minerva.DefinitionStore
	if conf.RedisDBAddress != "" {
		store = minerva.NewRedisDefinitionStore(conf.RedisDBAddress)
	} else {
		store, err = minerva.NewFilesystemDefinitionStore(conf.StorageDir)
		if err != nil {
			logger.Fatal("failed to create definition store", zap.Error(err))
		}
	}

	// Run
	logger.Info("starting minerva", zap.String("listen_addr", listenAddr))
	if err = minerva.StartServiceAPI(listenAddr, conf.Environments, store, logger); err != nil {
		logger.Fatal("minerva stopped", zap.Error(err))
	}
}
