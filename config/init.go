package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// the bridge cannot run without its policy config, errors here are fatal
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func configPath() string {
	if path := os.Getenv("BRIDGE_CONFIG"); path != "" {
		return path
	}
	return "config.yml"
}

func readFile(cfg *Configuration) {
	path := configPath()

	f, err := os.Open(path)
	if err != nil {
		processError(fmt.Errorf("cannot open bridge config %s: %w", path, err))
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		processError(fmt.Errorf("cannot parse bridge config %s: %w", path, err))
	}
}

func readEnv(cfg *Configuration) {
	if err := envconfig.Process("", cfg); err != nil {
		processError(err)
	}
}

func Init() {
	readFile(&Config)
	readEnv(&Config)
}
