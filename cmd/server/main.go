package main

import (
	"context"
	"flag"
	"log/slog"

	"keygate/bot"
	"keygate/impl/core"
	"keygate/internal/config"
	"keygate/internal/database"
	"keygate/internal/http-server/api"
	"keygate/lib/logger"
	"keygate/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting keygate", slog.String("config", *configPath), slog.String("env", conf.Env))

	store, closeStore, err := openStorage(conf, log)
	if err != nil {
		log.Error("opening storage", sl.Err(err))
		return
	}
	defer closeStore()

	c := core.New(store, log)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, c, log, bot.BotConfig{
			AdminIds:      conf.Telegram.AdminIds,
			RequiredChats: conf.Telegram.RequiredChats,
		})
		if err != nil {
			log.Error("creating telegram bot", sl.Err(err))
			return
		}
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot stopped", sl.Err(err))
			}
		}()
		defer tgBot.Stop()

		// from here on ERROR records also reach bot admins
		log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelError))
	}

	err = api.New(conf, log, c)
	if err != nil {
		log.Error("api server stopped", sl.Err(err))
	}
}

// openStorage picks the first enabled backend in order of preference:
// MySQL, then MongoDB, then SQLite. With nothing enabled keys live in
// process memory and do not survive a restart.
func openStorage(conf *config.Config, log *slog.Logger) (core.Store, func(), error) {
	if conf.MySql.Enabled {
		db, err := database.NewMySQL(conf)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using mysql key store", slog.String("host", conf.MySql.HostName))
		return db, func() { db.Close() }, nil
	}
	if conf.Mongo.Enabled {
		db, err := database.NewMongo(context.Background(), conf)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using mongo key store", slog.String("host", conf.Mongo.Host))
		return db, func() { db.Close() }, nil
	}
	if conf.Sqlite.Enabled {
		db, err := database.NewSQLite(conf.Sqlite.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using sqlite key store", slog.String("path", conf.Sqlite.Path))
		return db, func() { db.Close() }, nil
	}
	log.Warn("no storage backend enabled, keys will not survive a restart")
	return database.NewMemory(), func() {}, nil
}
