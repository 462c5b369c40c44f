package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"gigmarket/internal/config"
	"gigmarket/internal/database"
	"gigmarket/internal/domain"
	"gigmarket/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if !database.IsPostgres(cfg.DatabaseURL) {
		log.Println("Running AutoMigrate...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal("AutoMigrate failed:", err)
		}
	}

	// Cleanup old data, children first.
	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "device_tokens", "scheduled_reminders", "reviews", "applicants", "orders", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	// ================== USERS ==================
	log.Println("Creating users...")
	admin := domain.User{Name: "Администратор", Role: domain.RoleAdmin, Locale: "ru"}
	db.Create(&admin)

	customers := make([]domain.User, 0, 2)
	for i, name := range []string{"Асель", "Бекзат"} {
		u := domain.User{
			Name:   name,
			Phone:  fmt.Sprintf("+7 777 100 00%02d", i+1),
			Role:   domain.RoleCustomer,
			Locale: "ru",
		}
		db.Create(&u)
		customers = append(customers, u)
	}

	workers := make([]domain.User, 0, 3)
	for i, name := range []string{"Dana", "Yerlan", "Timur"} {
		u := domain.User{
			Name:   name,
			Phone:  fmt.Sprintf("+7 701 200 00%02d", i+1),
			Role:   domain.RoleWorker,
			Locale: "en",
		}
		db.Create(&u)
		workers = append(workers, u)
	}

	// ================== ORDERS ==================
	log.Println("Creating orders...")
	now := time.Now().In(cfg.Location)
	titles := []struct{ title, category string }{
		{"Помочь с переездом", "moving"},
		{"Собрать шкаф", "assembly"},
		{"Покрасить забор", "repair"},
		{"Генеральная уборка", "cleaning"},
	}
	orders := make([]domain.Order, 0, len(titles))
	for i, t := range titles {
		day := now.AddDate(0, 0, 2+i)
		o := domain.Order{
			CustomerID:    customers[i%len(customers)].ID,
			Title:         t.title,
			Category:      t.category,
			Location:      "Астана",
			Budget:        int64(5000 + rand.IntN(20)*500),
			WorkersNeeded: 1 + i%2,
			ServiceDate:   time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, cfg.Location).UTC(),
			Photos:        []string{},
			Status:        domain.OrderNew,
		}
		db.Create(&o)
		orders = append(orders, o)
	}

	// ================== APPLICANTS ==================
	log.Println("Creating pending applicants...")
	for i, o := range orders[:2] {
		w := workers[i]
		db.Create(&domain.Applicant{
			OrderID:       o.ID,
			WorkerID:      w.ID,
			WorkerName:    w.Name,
			WorkerPhone:   w.Phone,
			ProposedPrice: o.Budget,
			Message:       "Готов помочь",
			Status:        domain.ApplicantPending,
			AppliedAt:     time.Now().UTC(),
		})
		db.Model(&domain.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
			"status":           domain.OrderResponseReceived,
			"applicants_count": 1,
		})
	}

	// ================== TOKENS ==================
	tokens := jwt.New(cfg.JWTSecret, 30*24*time.Hour)
	log.Println("🎉 Seed completed!")
	log.Println("Test tokens (valid 30 days):")
	for _, u := range append(append([]domain.User{admin}, customers...), workers...) {
		token, err := tokens.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatalf("token for user %d: %v", u.ID, err)
		}
		log.Printf("%-8s id=%d %s: %s", u.Role, u.ID, u.Name, token)
	}
}
