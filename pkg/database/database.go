package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func ConnectDB(cfg *Config, log *zap.Logger) *gorm.DB {
	db := open(cfg, log, gormlogger.Warn)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Не удалось получить sql.DB", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("Подключение к базе данных установлено", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return db
}

// ConnectDBForMigration открывает соединение с подробным логом SQL и одним коннектом.
func ConnectDBForMigration(cfg *Config, log *zap.Logger) *gorm.DB {
	db := open(cfg, log, gormlogger.Info)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Не удалось получить sql.DB", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(1)

	log.Info("Подключение к базе данных для миграции установлено", zap.String("db", cfg.Name))
	return db
}

func CloseDB(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Не удалось получить sql.DB при закрытии", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("Ошибка закрытия соединения с БД", zap.Error(err))
		return
	}
	log.Info("Соединение с базой данных закрыто")
}

func open(cfg *Config, log *zap.Logger, level gormlogger.LogLevel) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatal("Не удалось подключиться к базе данных", zap.Error(err))
	}
	return db
}
