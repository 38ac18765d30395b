package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/classroomhq/classroom-backend/internal/config"
	"github.com/classroomhq/classroom-backend/internal/database"
	"github.com/classroomhq/classroom-backend/internal/export"
	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository/postgres"
	"github.com/classroomhq/classroom-backend/internal/service"
)

func main() {
	joinCode := flag.String("join-code", "", "join code of the class the students are enrolled in (required)")
	roster := flag.String("roster", "", "XLSX file listing usernames in its first column")
	count := flag.Int("count", 30, "number of generated students when no roster is given")
	prefix := flag.String("prefix", "student", "username prefix for generated students")
	password := flag.String("password", "password123", "password given to every seeded student")
	flag.Parse()

	if *joinCode == "" {
		fmt.Fprintln(os.Stderr, "Error: -join-code is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	usernames, err := loadUsernames(*roster, *prefix, *count)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load usernames")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	authService := service.NewAuthService(store, nil, nil, cfg.BcryptCost, log)
	enrollmentService := service.NewEnrollmentService(store, log)

	res, err := seedStudents(ctx, os.Stdout, authService, enrollmentService, *joinCode, *password, usernames)
	switch {
	case errors.Is(err, service.ErrNotFound) && res.created == 0:
		log.Fatal().Str("join_code", *joinCode).Msg("No class matches the join code")
	case err != nil:
		log.Fatal().Err(err).Msg("Seeding aborted")
	}

	fmt.Printf("\nSeed completed! Created %d and enrolled %d of %d students.\n", res.created, res.enrolled, len(usernames))
}

type seedResult struct {
	created  int
	enrolled int
}

// seedStudents creates a student account per username and enrolls it with
// joinCode. The code is resolved first, so an unknown code creates nothing.
func seedStudents(
	ctx context.Context,
	out io.Writer,
	authService *service.AuthService,
	enrollmentService *service.EnrollmentService,
	joinCode, password string,
	usernames []string,
) (seedResult, error) {
	var res seedResult

	class, err := enrollmentService.FindClass(ctx, joinCode)
	if errors.Is(err, service.ErrValidation) {
		return res, service.ErrNotFound
	}
	if err != nil {
		return res, err
	}

	fmt.Fprintf(out, "=== Seeding %d Students into '%s' ===\n", len(usernames), class.Name)

	for i, username := range usernames {
		u, err := authService.Signup(ctx, model.SignupRequest{
			Username: username,
			Password: password,
			Role:     model.RoleStudent,
		})
		if errors.Is(err, service.ErrUsernameTaken) {
			fmt.Fprintf(out, "Skipped '%s': username already taken\n", username)
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "Error creating student '%s': %v\n", username, err)
			continue
		}
		res.created++

		principal := model.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
		_, err = enrollmentService.Join(ctx, principal, model.JoinClassRequest{JoinCode: joinCode})
		switch {
		case errors.Is(err, service.ErrNotFound):
			return res, fmt.Errorf("class removed while seeding: %w", err)
		case err != nil && !errors.Is(err, service.ErrAlreadyEnrolled):
			fmt.Fprintf(out, "Error enrolling '%s': %v\n", username, err)
			continue
		}
		res.enrolled++

		if (i+1)%10 == 0 {
			fmt.Fprintf(out, "Processed %d students...\n", i+1)
		}
	}
	return res, nil
}

func loadUsernames(roster, prefix string, count int) ([]string, error) {
	if roster != "" {
		f, err := os.Open(roster)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return export.ReadRoster(f)
	}

	if count <= 0 {
		return nil, errors.New("-count must be positive")
	}
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return names, nil
}
