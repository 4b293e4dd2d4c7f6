package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"telemed/internal/api"
	"telemed/internal/auth"
	"telemed/internal/middleware"
	"telemed/internal/repository"
	"telemed/internal/service"
)

func main() {
	godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	// apply schema
	if migration, err := os.ReadFile("db/migrations/001_init.sql"); err != nil {
		log.Printf("migration file not found, skipping: %v", err)
	} else if _, err := db.Exec(string(migration)); err != nil {
		log.Fatalf("Failed to apply migration: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	notifier := service.NewSenderService()
	allocator := service.NewAllocatorService(slotRepo, apptRepo, userRepo, notifier)
	reminderSvc := service.NewReminderService(reminderRepo)
	scheduler := service.NewSchedulerService(reminderRepo, notifier)
	authSvc := service.NewAuthService(userRepo, notifier, secret)
	symptomSvc := service.NewSymptomService()

	authHandler := api.NewAuthHandler(authSvc)
	slotHandler := api.NewSlotHandler(allocator)
	apptHandler := api.NewAppointmentHandler(allocator)
	reminderHandler := api.NewReminderHandler(reminderSvc)
	symptomHandler := api.NewSymptomHandler(symptomSvc)

	r := mux.NewRouter()

	// Public endpoints, rate limited against OTP guessing
	rl := middleware.NewRateLimiter(5, 10)
	pub := r.PathPrefix("/api/auth").Subrouter()
	pub.Use(middleware.RateLimit(rl))
	pub.HandleFunc("/register", authHandler.Register).Methods("POST")
	pub.HandleFunc("/login", authHandler.Login).Methods("POST")
	pub.HandleFunc("/verify", authHandler.Verify).Methods("POST")

	// Authenticated endpoints; role checks happen per handler
	app := r.PathPrefix("/api").Subrouter()
	app.Use(auth.Middleware(secret))
	app.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	app.HandleFunc("/slots", slotHandler.CreateSlot).Methods("POST")
	app.HandleFunc("/slots", slotHandler.ListSlots).Methods("GET")
	app.HandleFunc("/slots/{id}", slotHandler.DeleteSlot).Methods("DELETE")
	app.HandleFunc("/status/toggle", slotHandler.TogglePresence).Methods("POST")
	app.HandleFunc("/doctors", apptHandler.ListDoctors).Methods("GET")
	app.HandleFunc("/doctors/{id}/slots", apptHandler.ListDoctorSlots).Methods("GET")
	app.HandleFunc("/appointments", apptHandler.Book).Methods("POST")
	app.HandleFunc("/appointments", apptHandler.List).Methods("GET")
	app.HandleFunc("/appointments/{id}", apptHandler.Cancel).Methods("DELETE")
	app.HandleFunc("/appointments/{id}/complete", apptHandler.Complete).Methods("PUT")
	app.HandleFunc("/rooms/{token}", apptHandler.GetRoom).Methods("GET")
	app.HandleFunc("/symptom-check", symptomHandler.Check).Methods("POST")
	app.HandleFunc("/reminders", reminderHandler.Create).Methods("POST")
	app.HandleFunc("/reminders", reminderHandler.List).Methods("GET")
	app.HandleFunc("/reminders/{id}", reminderHandler.Delete).Methods("DELETE")

	// Reminder scheduler. SkipIfStillRunning drops a tick while the
	// previous one is in flight instead of queueing it.
	interval := env("REMINDER_INTERVAL", "60s")
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	if _, err := c.AddFunc("@every "+interval, func() {
		if err := scheduler.DeliverDueReminders(); err != nil {
			log.Printf("reminder tick failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule reminder job: %v", err)
	}
	c.Start()
	defer c.Stop()

	port := env("PORT", "8080")
	srv := &http.Server{
		Addr: ":" + port,
		Handler: handlers.CORS(
			handlers.AllowedOrigins([]string{env("CORS_ORIGIN", "*")}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(r),
	}
	go func() {
		log.Printf("Server running on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
