package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	return s.seed(50, 200, 600, 400)
}

// SeedTest seeds a small data set for quick manual testing
func (s *Seeder) SeedTest() error {
	return s.seed(5, 15, 30, 10)
}

// Clean removes all seeded rows. Seed users are recognizable by their
// external_id prefix.
func (s *Seeder) Clean() error {
	var users []models.User
	if err := s.db.Where("external_id LIKE 'seed-%'").Find(&users).Error; err != nil {
		return err
	}

	for _, u := range users {
		// Posts cascade to likes and comments
		if err := s.db.Where("user_id = ?", u.ID).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("failed to delete posts for %s: %w", u.Username, err)
		}
		if err := s.db.Where("follower_id = ? OR followee_id = ?", u.ID, u.ID).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("failed to delete follows for %s: %w", u.Username, err)
		}
		if err := s.db.Delete(&models.User{}, "id = ?", u.ID).Error; err != nil {
			return fmt.Errorf("failed to delete user %s: %w", u.Username, err)
		}
	}

	logger.Log.Info("Seed data removed", zap.Int("users", len(users)))
	return nil
}

func (s *Seeder) seed(userCount, postCount, likeCount, commentCount int) error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(userCount)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, postCount)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(users, posts, likeCount); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, commentCount); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating follows...")
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var existing int64
	s.db.Model(&models.User{}).Where("external_id LIKE 'seed-%'").Count(&existing)
	if existing >= int64(count) {
		var users []models.User
		if err := s.db.Where("external_id LIKE 'seed-%'").Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation",
			zap.Int("users", len(users)))
		return users, nil
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		var taken models.User
		for {
			if err := s.db.Where("username = ?", username).First(&taken).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
		}

		user := models.User{
			ExternalID:  fmt.Sprintf("seed-%s", gofakeit.UUID()),
			Username:    username,
			DisplayName: gofakeit.Name(),
			AvatarURL:   fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Users created", zap.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		var caption *string
		// Roughly a quarter of posts go out captionless
		if rand.Float32() < 0.75 {
			text := gofakeit.HipsterSentence()
			caption = &text
		}

		seedKey := fmt.Sprintf("posts/%s/%d-%s.jpg", author.ID, time.Now().Unix(), gofakeit.LetterN(8))
		post := models.Post{
			UserID:     author.ID,
			ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.LetterN(10)),
			StorageKey: seedKey,
			Caption:    caption,
			CreatedAt:  gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}

	logger.Log.Info("Posts created", zap.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	created := 0
	for i := 0; i < count; i++ {
		like := models.Like{
			PostID: posts[rand.Intn(len(posts))].ID,
			UserID: users[rand.Intn(len(users))].ID,
		}
		// Random pairs collide with the unique index; skip dupes
		if err := s.db.Create(&like).Error; err != nil {
			continue
		}
		created++
	}

	logger.Log.Info("Likes created", zap.Int("count", created))
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		comment := models.Comment{
			PostID:  posts[rand.Intn(len(posts))].ID,
			UserID:  users[rand.Intn(len(users))].ID,
			Content: gofakeit.Sentence(rand.Intn(12) + 3),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}

	logger.Log.Info("Comments created", zap.Int("count", count))
	return nil
}

func (s *Seeder) seedFollows(users []models.User) error {
	created := 0
	for _, follower := range users {
		// Each user follows a handful of others
		for i := 0; i < rand.Intn(8)+2; i++ {
			followee := users[rand.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}
			follow := models.Follow{
				FollowerID: follower.ID,
				FolloweeID: followee.ID,
			}
			if err := s.db.Create(&follow).Error; err != nil {
				continue
			}
			created++
		}
	}

	logger.Log.Info("Follows created", zap.Int("count", created))
	return nil
}
