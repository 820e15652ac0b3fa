package models

import (
	"fmt"

	"github.com/tickettractor/backend/internal/config"
	"github.com/tickettractor/backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Session{},
		&AssigneeUser{},
		&ActivityLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// seedUsers is the initial assignee roster, inserted on first boot.
var seedUsers = []AssigneeUser{
	{DisplayName: "John Lundy", Username: "johlundy", Email: "john.lundy@amd.com"},
	{DisplayName: "Yucheng Guo", Username: "yucheguo", Email: "yucheng.guo@amd.com"},
	{DisplayName: "Drew Schwarzlose", Username: "dschwarz", Email: "drew.schwarzlose@amd.com"},
	{DisplayName: "Paul Jerry", Username: "jerrpaul", Email: "paul.jerry@amd.com"},
	{DisplayName: "Rizwan Rahman", Username: "rirahman", Email: "rizwan.rahman@amd.com"},
	{DisplayName: "Balasubramanian, Neha", Username: "nvellaka", Email: "neha.balasubramanian@amd.com"},
}

// SeedDefaultData inserts the assignee roster if the table is empty.
func SeedDefaultData() error {
	var count int64
	if err := DB.Model(&AssigneeUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range seedUsers {
		user := seedUsers[i]
		user.IsActive = true
		if err := DB.Create(&user).Error; err != nil {
			return err
		}
	}
	logger.Infof("Seeded %d assignee users", len(seedUsers))
	return nil
}
