package seeds

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/SummaryProject/SP-Backend/internal/api"
	"github.com/SummaryProject/SP-Backend/internal/auth"
	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SeedUser struct {
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
}

type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedAll loads the YAML seed file and creates any users that don't
// exist yet, each with a freshly issued API token. Existing users are
// left untouched, so reruns are safe.
func SeedAll(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	secret, err := api.SecretFromEnv()
	if err != nil {
		return err
	}
	issuer := api.Issuer{Secret: secret}

	for _, su := range file.Users {
		if su.Email == "" || su.Password == "" {
			return fmt.Errorf("seed user missing email or password")
		}

		var existing auth.User
		err := db.DB.First(&existing, "email = ?", su.Email).Error
		if err == nil {
			log.Printf("[seed] %s already exists, skipping", su.Email)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		userID := uuid.NewString()
		credential, err := issuer.Issue(userID, su.Email, su.FirstName, su.LastName)
		if err != nil {
			return err
		}

		token := api.Token{ID: uuid.NewString(), Token: credential}
		if err := db.DB.Create(&token).Error; err != nil {
			return err
		}

		role := su.Role
		if role == "" {
			role = "standard"
		}

		user := auth.User{
			UserID:         userID,
			Email:          su.Email,
			FirstName:      su.FirstName,
			LastName:       su.LastName,
			HashedPassword: string(hashed),
			Role:           role,
			APITokenID:     token.ID,
		}
		if err := db.DB.Create(&user).Error; err != nil {
			return err
		}

		log.Printf("[seed] created %s (%s)", su.Email, role)
	}

	return nil
}
