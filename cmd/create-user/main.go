package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/classroomhq/classroom-backend/internal/config"
	"github.com/classroomhq/classroom-backend/internal/database"
	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository/postgres"
	"github.com/classroomhq/classroom-backend/internal/service"
	"golang.org/x/term"
)

// demoPassword is shared by the accounts created with -demo.
const demoPassword = "password123"

func main() {
	demo := flag.Bool("demo", false, "create the demo accounts teacher1 and student1 and exit")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Signup never issues tokens, so no token service is needed.
	authService := service.NewAuthService(postgres.NewStore(pool), nil, nil, cfg.BcryptCost, log)

	if *demo {
		for _, req := range []model.SignupRequest{
			{Username: "teacher1", Password: demoPassword, Role: model.RoleTeacher},
			{Username: "student1", Password: demoPassword, Role: model.RoleStudent},
		} {
			u, err := authService.Signup(ctx, req)
			if errors.Is(err, service.ErrUsernameTaken) {
				fmt.Printf("Skipped '%s': already exists\n", req.Username)
				continue
			}
			if err != nil {
				log.Fatal().Err(err).Str("username", req.Username).Msg("Failed to create demo user")
			}
			fmt.Printf("Created %s '%s' with ID: %d\n", u.Role, u.Username, u.ID)
		}
		return
	}

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Enter Role (teacher/student/parent): ")
	roleStr, _ := reader.ReadString('\n')
	role, err := model.ParseRole(strings.TrimSpace(roleStr))
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	u, err := authService.Signup(ctx, model.SignupRequest{
		Username: username,
		Password: string(bytePassword),
		Role:     role,
	})
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		for field, msg := range verr.Fields {
			fmt.Printf("Error: %s %s\n", field, msg)
		}
		os.Exit(1)
	case errors.Is(err, service.ErrUsernameTaken):
		fmt.Printf("Error: username '%s' is already taken\n", username)
		os.Exit(1)
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' created with ID: %d\n", u.Role, u.Username, u.ID)
}
