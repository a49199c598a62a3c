package protocal

import (
	"fmt"

	"github.com/cassiel99/gptbot/configs"
	"github.com/cassiel99/gptbot/internal/adapters/output/line"
	"github.com/cassiel99/gptbot/internal/adapters/output/memory"
	"github.com/cassiel99/gptbot/internal/adapters/output/postgres"
	sqliteRepo "github.com/cassiel99/gptbot/internal/adapters/output/sqlite"
	"github.com/cassiel99/gptbot/internal/adapters/output/telegram"
	"github.com/cassiel99/gptbot/internal/application"
	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
	"github.com/cassiel99/gptbot/pkg/database_driver/gorm"
	"github.com/cassiel99/gptbot/pkg/database_driver/sqlite"
	"github.com/cassiel99/gptbot/pkg/textutil"

	"github.com/sirupsen/logrus"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSqlite   = "sqlite"
)

// newStateRepository opens the state store selected by storage.driver
func newStateRepository(conf *configs.Config) (output.StateRepository, error) {
	switch conf.Storage.Driver {
	case StoragePostgres:
		dbConGorm, err := gorm.ConnectToPostgreSQL(
			conf.Postgres.Host,
			conf.Postgres.Port,
			conf.Postgres.Username,
			conf.Postgres.Password,
			conf.Postgres.DbName,
			conf.Postgres.SSLMode,
		)
		if err != nil {
			return nil, err
		}
		repo, err := postgres.NewStateRepository(dbConGorm.Postgres)
		if err != nil {
			gorm.DisconnectPostgres(dbConGorm.Postgres)
			return nil, err
		}
		return repo, nil

	case StorageSqlite:
		db, err := sqlite.OpenDB(conf.Sqlite.Path)
		if err != nil {
			return nil, err
		}
		repo, err := sqliteRepo.NewStateRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil

	case StorageMemory, "":
		logrus.Warn("Using in-memory state storage, chats are lost on restart")
		return memory.NewStateRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// newPlatformClients creates the output adapters of the enabled chat platforms
func newPlatformClients(conf *configs.Config) ([]output.PlatformClient, error) {
	clients := make([]output.PlatformClient, 0, 2)

	if conf.Telegram.Enabled {
		telegramClient, err := telegram.NewTelegramClientAdapter(conf.Telegram)
		if err != nil {
			return nil, err
		}
		clients = append(clients, telegramClient)
	}

	if conf.Line.Enabled {
		lineClient, err := line.NewLineClientAdapter(conf.Line.ChannelToken)
		if err != nil {
			return nil, err
		}
		clients = append(clients, lineClient)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no chat platform enabled, enable telegram or line")
	}
	return clients, nil
}

func newSessionManager(conf *configs.Config) *domain.SessionManager {
	return domain.NewSessionManager(domain.SessionManagerConfig{
		SystemPrompt:   conf.LMStudio.SystemPrompt,
		MaxNameLength:  conf.Session.MaxNameLength,
		ReservedNames:  application.ReservedNames,
		DefaultTemp:    conf.Session.DefaultTemperature,
		DefaultTokens:  conf.Session.DefaultMaxTokens,
		MaxTrackedIDs:  conf.Session.MaxTrackedMessages,
		MaxHistoryMsgs: conf.Session.MaxHistoryMessages,
		MaxHistoryLen:  conf.Session.MaxHistoryChars,
	})
}

func newNormalizer(conf configs.Normalizer) textutil.Normalizer {
	if !conf.Enabled {
		return textutil.NewIdentity()
	}
	normalizer, ok := textutil.NewNormalizer(conf.Script)
	if !ok {
		logrus.Warnf("Unknown normalizer script %q, using Cyrillic", conf.Script)
	}
	return normalizer
}
