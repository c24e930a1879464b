package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "INTERNLY_"

type Application struct {
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Database Database `koanf:"db"`
	Sync     Sync     `koanf:"sync"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`

	// MaxConns caps the connection pool; zero keeps the pgx default.
	MaxConns int32 `koanf:"maxconns"`
}

type Sync struct {
	// StaleLockAfter lets a wallet sync take over a RUNNING lock older than this. Zero disables takeover.
	StaleLockAfter time.Duration `koanf:"stalelockafter"`
}

func defaults() Application {
	return Application{
		Host:   "http://localhost:8181",
		Listen: ":8181",
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "internly",
			Pass:     "",
			Name:     "internly",
			Schema:   "internly",
			MaxConns: 25,
		},
	}
}

// Load reads the configuration from defaults, then the YAML file at path, then INTERNLY_ environment
// variables (INTERNLY_DB_HOST sets db.host).
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if app.Sync.StaleLockAfter < 0 {
		log.Warnf("negative sync.staleLockAfter %s, stale lock takeover disabled", app.Sync.StaleLockAfter)
		app.Sync.StaleLockAfter = 0
	}

	return app, nil
}
