// seed inserts development sample data for local testing.
// Idempotent: skips everything if the admin user already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	complaintdomain "civic-connect/backend/internal/complaint/domain"
	complaintrepo "civic-connect/backend/internal/complaint/repository"
	"civic-connect/backend/internal/config"
	"civic-connect/backend/internal/db"
	eventdomain "civic-connect/backend/internal/event/domain"
	eventrepo "civic-connect/backend/internal/event/repository"
	notificationdomain "civic-connect/backend/internal/notification/domain"
	notificationrepo "civic-connect/backend/internal/notification/repository"
	"civic-connect/backend/internal/platform/civil"
	schemedomain "civic-connect/backend/internal/scheme/domain"
	schemerepo "civic-connect/backend/internal/scheme/repository"
	"civic-connect/backend/internal/security"
	settingdomain "civic-connect/backend/internal/setting/domain"
	settingrepo "civic-connect/backend/internal/setting/repository"
	userdomain "civic-connect/backend/internal/user/domain"
	userrepo "civic-connect/backend/internal/user/repository"
)

const (
	adminEmail  = "admin@example.com"
	staffEmail  = "staff@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)
	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &userdomain.User{ID: uuid.NewString(), Name: "Office Admin", Email: adminEmail, PasswordHash: &passwordHash, Role: userdomain.RoleAdmin, IsActive: true}
	staff := &userdomain.User{ID: uuid.NewString(), Name: "Field Staff", Email: staffEmail, PasswordHash: &passwordHash, Role: userdomain.RoleStaff, IsActive: true}
	for _, u := range []*userdomain.User{admin, staff} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
	}

	phone := "9876543210"
	complaint := complaintdomain.CreateInput{
		CitizenName:  "Ravi Kumar",
		CitizenPhone: &phone,
		Category:     "roads",
		Title:        "Pothole on Station Road",
		Description:  "Large pothole near the bus stop causing accidents.",
	}
	if err := complaint.Validate(); err != nil {
		log.Fatalf("complaint: %v", err)
	}
	created, err := complaintrepo.NewPostgresRepository(pool).Create(ctx, staff.ID, complaint)
	if err != nil {
		log.Fatalf("create complaint: %v", err)
	}

	venue := "Town Hall"
	event := eventdomain.CreateInput{
		Title:     "Public Grievance Day",
		EventDate: civil.Date{Time: time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)},
		Location:  &venue,
	}
	if err := event.Validate(); err != nil {
		log.Fatalf("event: %v", err)
	}
	if _, err := eventrepo.NewPostgresRepository(pool).Create(ctx, admin.ID, event); err != nil {
		log.Fatalf("create event: %v", err)
	}

	scheme := schemedomain.CreateInput{Name: "Street Light Upgrade"}
	if err := scheme.Validate(); err != nil {
		log.Fatalf("scheme: %v", err)
	}
	if _, err := schemerepo.NewPostgresRepository(pool).Create(ctx, admin.ID, scheme); err != nil {
		log.Fatalf("create scheme: %v", err)
	}

	settings := settingrepo.NewPostgresRepository(pool)
	for key, value := range map[string]string{
		"office_name":  "MLA Constituency Office",
		"office_hours": "10:00-17:00",
	} {
		v := value
		if _, err := settings.Upsert(ctx, admin.ID, settingdomain.UpsertInput{Key: key, Value: &v}); err != nil {
			log.Fatalf("upsert setting %s: %v", key, err)
		}
	}

	if err := notificationrepo.NewPostgresRepository(pool).Create(ctx, &notificationdomain.Notification{
		UserID:  staff.ID,
		Title:   "New complaint",
		Message: fmt.Sprintf("Complaint %s was filed.", created.ComplaintID),
	}); err != nil {
		log.Fatalf("create notification: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s (OTP login; password %s)\n", adminEmail, devPassword)
	fmt.Printf("Staff login: %s\n", staffEmail)
}
