package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository"
	"foodshare/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seeder orchestrates demo-data creation through the real lifecycle service so
// the seeded data respects the same invariants as production writes.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	r       *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db),
		r:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seedable data, children first.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []interface{}{
		&models.ChatMessage{},
		&models.Chat{},
		&models.HistoryEntry{},
		&models.FoodRequest{},
		&models.FoodPost{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", table, err)
		}
	}
	return nil
}

// Seed populates the database with users, posts, and lifecycle activity.
func (s *Seeder) Seed(opts Options) error {
	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.createUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := s.createPosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := s.runLifecycleActivity(users, posts); err != nil {
		return fmt.Errorf("failed to create lifecycle activity: %w", err)
	}

	log.Println("Seeding complete. All users have the password: password123")
	return nil
}

func (s *Seeder) createUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createPosts(users []*models.User, n int) ([]*models.FoodPost, error) {
	posts := make([]*models.FoodPost, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.r.Intn(len(users))]
		// roughly two thirds free donations, one third priced
		isFree := s.r.Intn(3) != 0
		posts = append(posts, s.factory.BuildFoodPost(owner, isFree))
	}
	if err := s.factory.CreateFoodPostsBatch(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// runLifecycleActivity drives claims and decisions through the lifecycle
// service so chats and history entries come out of the same code paths the
// API uses.
func (s *Seeder) runLifecycleActivity(users []*models.User, posts []*models.FoodPost) error {
	lifecycle := service.NewLifecycleService(
		s.db,
		repository.NewFoodPostRepository(s.db),
		repository.NewRequestRepository(s.db),
		repository.NewUserRepository(s.db),
		nil,
	)
	messages := service.NewMessageService(
		repository.NewChatRepository(s.db),
		repository.NewUserRepository(s.db),
		nil,
	)

	ctx := context.Background()
	claimed, accepted, cancelled := 0, 0, 0

	for _, post := range posts {
		// about half the posts see a claim
		if s.r.Intn(2) == 0 {
			continue
		}

		requester := users[s.r.Intn(len(users))]
		if requester.ID == post.OwnerID {
			continue
		}

		kind := models.RequestKindBook
		if !post.IsFree {
			kind = models.RequestKindOrder
		}
		_, req, err := lifecycle.Claim(ctx, service.ClaimInput{
			RequesterID: requester.ID,
			PostID:      post.ID,
			Kind:        kind,
			Quantity:    1,
		})
		if err != nil {
			continue
		}
		claimed++

		switch s.r.Intn(3) {
		case 0:
			// leave pending
		case 1:
			if _, err := lifecycle.Cancel(ctx, post.OwnerID, req.ID); err == nil {
				cancelled++
			}
		default:
			_, chat, err := lifecycle.Accept(ctx, post.OwnerID, req.ID)
			if err != nil {
				continue
			}
			accepted++

			for i := 0; i < s.r.Intn(4); i++ {
				sender := post.OwnerID
				if i%2 == 0 {
					sender = requester.ID
				}
				_, _, _ = messages.Send(ctx, service.SendMessageInput{
					UserID: sender,
					ChatID: chat.ID,
					Text:   seedMessageText(s.r, post.Title),
				})
			}
		}
	}

	log.Printf("lifecycle activity: %d claims, %d accepted, %d cancelled", claimed, accepted, cancelled)
	return nil
}

func seedMessageText(r *rand.Rand, title string) string {
	lines := []string{
		"Hi! Is the %s still available for pickup?",
		"Thanks for accepting! When can I come by for the %s?",
		"The %s was great, thank you!",
		"I can pick up the %s this evening if that works.",
	}
	return fmt.Sprintf(lines[r.Intn(len(lines))], title)
}
