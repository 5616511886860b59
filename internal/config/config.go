package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type TelegramConfig struct {
	Enabled       bool    `yaml:"enabled" env-default:"false"`
	ApiKey        string  `yaml:"api_key" env-default:""`
	AdminIds      []int64 `yaml:"admin_ids"`      // receive error alerts, may run admin commands
	RequiredChats []int64 `yaml:"required_chats"` // chats a requester must be a member of to get a key
}

type MySqlConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"keygate"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"keygate"`
}

type SqliteConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	Path    string `yaml:"path" env-default:"keygate.db"`
}

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Sqlite   SqliteConfig   `yaml:"sqlite"`
	Listen   Listen         `yaml:"listen"`
	Env      string         `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
