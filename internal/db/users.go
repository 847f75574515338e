package db

import (
	"database/sql"
	"errors"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"opsboard/internal/apperrors"
	"opsboard/internal/models"
)

// FindUserByUsername looks up one directory entry by its case-normalized
// username. The directory is pre-seeded; login never writes to it.
func FindUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := DB.QueryRow(
		"SELECT id, username, password_hash, jabatan FROM users WHERE username = ?",
		strings.ToUpper(username),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Jabatan)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SeedUser inserts a directory entry if the username is not taken.
// The plaintext password is hashed before storage.
func SeedUser(username, password, jabatan string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = DB.Exec(
		"INSERT OR IGNORE INTO users (username, password_hash, jabatan) VALUES (?, ?, ?)",
		strings.ToUpper(username), string(hash), jabatan,
	)
	return err
}

// CreateDefaultAdmin creates the initial admin user if the directory is empty
func CreateDefaultAdmin(config models.Config) {
	var count int
	DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if count > 0 {
		return
	}

	password := config.AdminPass
	if password == "" {
		password = randomPassword()
		log.Printf("🔑 Generated admin password: %s", password)
		log.Printf("   Set ADMIN_PASS environment variable to use a custom password")
	}

	if err := SeedUser(config.AdminUser, password, "SUPER ADMIN"); err != nil {
		log.Printf("⚠️  Could not create admin user: %v", err)
	} else {
		log.Printf("✓ Created admin user: %s", strings.ToUpper(config.AdminUser))
	}
}
