package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/userhub/userhub/config"
	"github.com/userhub/userhub/pkg/helpers"
)

// Seeds the base roles and an admin account so a fresh database has a
// principal that can log in and manage users.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	var adminRoleID, userRoleID int64
	if err := db.QueryRow(`
		INSERT INTO roles (name) VALUES ('admin')
		ON CONFLICT (name) DO UPDATE SET updated_at = now()
		RETURNING id
	`).Scan(&adminRoleID); err != nil {
		log.Fatalf("failed to upsert admin role: %v", err)
	}
	if err := db.QueryRow(`
		INSERT INTO roles (name) VALUES ('user')
		ON CONFLICT (name) DO UPDATE SET updated_at = now()
		RETURNING id
	`).Scan(&userRoleID); err != nil {
		log.Fatalf("failed to upsert user role: %v", err)
	}
	fmt.Printf("roles ensured: admin=%d user=%d\n", adminRoleID, userRoleID)

	username := "admin"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id int64
	if err := db.QueryRow(`
		INSERT INTO users (username, password, primary_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET updated_at = now()
		RETURNING id
	`, username, hash, "admin@localhost").Scan(&id); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	fmt.Printf("seeded user: id=%d username=%s password=%s\n", id, username, password)

	if _, err := db.Exec(`
		INSERT INTO user_roles (user_id, role_id, created_by, created_at, last_modified_by, last_modified_at)
		VALUES ($1, $2, 'seed', now(), 'seed', now())
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, id, adminRoleID); err != nil {
		log.Fatalf("failed to assign admin role: %v", err)
	}
	fmt.Println("assigned admin role to seeded user (if not already)")
}
