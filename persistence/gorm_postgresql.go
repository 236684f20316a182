package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/unoserver/room"
)

// GormPostgreSQL stores snapshots as jsonb rows, one per room, plus an
// append-only game record table.
type GormPostgreSQL struct {
	db *gorm.DB
}

type RoomModel struct {
	ID        uint   `gorm:"primaryKey"`
	RoomCode  string `gorm:"uniqueIndex;not null"`
	State     string `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GameRecordModel struct {
	ID        uint   `gorm:"primaryKey"`
	RoomCode  string `gorm:"index;not null"`
	Winner    string `gorm:"not null"`
	Result    string `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&RoomModel{}, &GameRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveRoom(code string, snap *room.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	var model RoomModel
	result := p.db.Where("room_code = ?", code).First(&model)
	if result.Error == gorm.ErrRecordNotFound {
		model = RoomModel{
			RoomCode: code,
			State:    string(state),
		}
		return p.db.Create(&model).Error
	} else if result.Error != nil {
		return result.Error
	}

	model.State = string(state)
	model.UpdatedAt = time.Now()
	return p.db.Save(&model).Error
}

func (p *GormPostgreSQL) DeleteRoom(code string) error {
	return p.db.Where("room_code = ?", code).Delete(&RoomModel{}).Error
}

func (p *GormPostgreSQL) LoadRooms() (map[string]*room.Snapshot, error) {
	var models []RoomModel
	if err := p.db.Find(&models).Error; err != nil {
		return nil, err
	}

	rooms := make(map[string]*room.Snapshot, len(models))
	for _, model := range models {
		var snap room.Snapshot
		if err := json.Unmarshal([]byte(model.State), &snap); err != nil {
			// One corrupt row should not take down the whole restore.
			continue
		}
		rooms[model.RoomCode] = &snap
	}
	return rooms, nil
}

func (p *GormPostgreSQL) SaveGameRecord(record *GameRecord) error {
	result, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return p.db.Create(&GameRecordModel{
		RoomCode: record.RoomCode,
		Winner:   record.Winner.Name,
		Result:   string(result),
	}).Error
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
