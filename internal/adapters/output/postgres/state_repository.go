package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
	gormDriver "github.com/cassiel99/gptbot/pkg/database_driver/gorm"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check to ensure StateRepository implements output.StateRepository
var _ output.StateRepository = (*StateRepository)(nil)

// userStateRecord is one row of the user_states table
type userStateRecord struct {
	UserKey   string    `gorm:"column:user_key;primaryKey;size:128"`
	Data      string    `gorm:"column:data;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the gorm table name
func (userStateRecord) TableName() string {
	return "user_states"
}

// StateRepository struct - Secondary/Driven adapter for PostgreSQL
// Each user state is stored as one JSON document keyed by the user key.
type StateRepository struct {
	dbGorm *gorm.DB
}

// NewStateRepository func - Creates new PostgreSQL repository and migrates its table
func NewStateRepository(dbGorm *gorm.DB) (*StateRepository, error) {
	logrus.Info("Migrate database ...")
	if err := dbGorm.AutoMigrate(&userStateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate user_states: %w", err)
	}
	return &StateRepository{
		dbGorm: dbGorm,
	}, nil
}

// Load func - Reads the state of a user, nil when none is stored
func (p *StateRepository) Load(ctx context.Context, userKey string) (*domain.UserState, error) {
	var record userStateRecord
	err := p.dbGorm.WithContext(ctx).Where("user_key = ?", userKey).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logrus.Errorln(err)
		return nil, fmt.Errorf("failed to load state of %s: %w", userKey, err)
	}
	return fromRecord(record)
}

// Save func - Upserts the state of a user
func (p *StateRepository) Save(ctx context.Context, userKey string, state *domain.UserState) error {
	record, err := toRecord(userKey, state)
	if err != nil {
		return err
	}
	err = p.dbGorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		logrus.Errorln(err)
		return fmt.Errorf("failed to save state of %s: %w", userKey, err)
	}
	return nil
}

// Ping func - Checks the database connection
func (p *StateRepository) Ping(ctx context.Context) error {
	sqlDB, err := p.dbGorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close func - Closes the connection pool
func (p *StateRepository) Close() error {
	return gormDriver.DisconnectPostgres(p.dbGorm)
}

func toRecord(userKey string, state *domain.UserState) (userStateRecord, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return userStateRecord{}, fmt.Errorf("failed to encode state of %s: %w", userKey, err)
	}
	return userStateRecord{
		UserKey:   userKey,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func fromRecord(record userStateRecord) (*domain.UserState, error) {
	var state domain.UserState
	if err := json.Unmarshal([]byte(record.Data), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state of %s: %w", record.UserKey, err)
	}
	return &state, nil
}
