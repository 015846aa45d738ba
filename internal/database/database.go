package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/picstream/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// TranslateError is enabled so unique violations surface as
// gorm.ErrDuplicatedKey, which handlers map to 409.
func Initialize(databaseURL string) error {
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models and (re)creates the
// read-only statistics views
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := createStatsViews(); err != nil {
		return fmt.Errorf("failed to create stats views: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// createIndexes creates performance indexes for the feed queries
func createIndexes() error {
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Feed pages are ordered by recency, optionally filtered by author
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)")

	// Comment previews fetch the most recent rows per post
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)")

	return nil
}

// createStatsViews creates the derived aggregation views. These are the
// only source of like/comment and follower counts; application code
// never maintains counters.
func createStatsViews() error {
	err := DB.Exec(`
		CREATE OR REPLACE VIEW post_stats AS
		SELECT p.id AS post_id,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id)    AS like_count,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
		FROM posts p`).Error
	if err != nil {
		return fmt.Errorf("post_stats view: %w", err)
	}

	err = DB.Exec(`
		CREATE OR REPLACE VIEW user_stats AS
		SELECT u.id AS user_id,
		       (SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id)          AS post_count,
		       (SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id)    AS follower_count,
		       (SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id)    AS following_count
		FROM users u`).Error
	if err != nil {
		return fmt.Errorf("user_stats view: %w", err)
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
