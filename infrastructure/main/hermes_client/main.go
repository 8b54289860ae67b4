package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Apiara/ControlMBridge/infrastructure/hermes"
	"github.com/Apiara/ControlMBridge/infrastructure/main/config"
	"go.uber.org/zap"
)

/*
Config Format
--------------
api_url = string
request_file = string
env_file = string
debug = bool

request_file holds the JSON document posted to api_url, e.g.
	{"ambiente": "DEV", "token": "...", "filename": "my-file", "jsonData": {...}}
HERMES_API_URL and HERMES_TOKEN override api_url and the document's token
*/

type hermesConfig struct {
	APIURL      string `toml:"api_url"`
	RequestFile string `toml:"request_file"`
	EnvFile     string `toml:"env_file"`
	Debug       bool   `toml:"debug"`
}

// readRequest loads the request document, replacing its token when one is given
func readRequest(fname, token string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file(%s): %w", fname, err)
	}

	var request map[string]json.RawMessage
	if err = json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("request file(%s) is not a JSON object: %w", fname, err)
	}
	if request == nil {
		return nil, fmt.Errorf("request file(%s) is not a JSON object", fname)
	}
	if token != "" {
		encoded, err := json.Marshal(token)
		if err != nil {
			return nil, err
		}
		request["token"] = encoded
	}
	return request, nil
}

func main() {
	fnamePtr := flag.String("config", "", "TOML configuration file path")
	flag.Parse()

	var conf hermesConfig
	if err := config.ReadTOMLConfig(*fnamePtr, &conf); err != nil {
		panic(err)
	}
	var token string
	err := config.ApplyEnvOverrides(conf.EnvFile, map[string]*string{
		"HERMES_API_URL": &conf.APIURL,
		"HERMES_TOKEN":   &token,
	})
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(conf.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	request, err := readRequest(conf.RequestFile, token)
	if err != nil {
		logger.Fatal("failed to prepare request", zap.Error(err))
	}

	result := hermes.NewClient(logger).Run(conf.APIURL, request)
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode result", zap.Error(err))
	}
	fmt.Println(string(output))

	if !result.Success {
		logger.Sync()
		os.Exit(1)
	}
}
