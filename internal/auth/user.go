package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"
)

// User is an admin account with a hashed password. The site assumes a
// single logical admin, but the file format allows more.
type User struct {
	Email    string `toml:"email"`
	Password string `toml:"password"` // hashed after first load
	Created  string `toml:"created"`
}

// UserConfig represents the structure of users.toml
type UserConfig struct {
	Users []User `toml:"users"`
}

// UserStore manages admin credentials loaded from a TOML file.
type UserStore struct {
	users    map[string]*User
	filePath string
}

// NewUserStore loads users from the given file, creating a default
// admin when the file does not exist yet.
func NewUserStore(filePath string) (*UserStore, error) {
	store := &UserStore{
		users:    make(map[string]*User),
		filePath: filePath,
	}

	if err := store.loadUsers(); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	return store, nil
}

// loadUsers reads the TOML file, hashing any plaintext passwords it
// finds so the file never keeps them in the clear.
func (us *UserStore) loadUsers() error {
	if _, err := os.Stat(us.filePath); os.IsNotExist(err) {
		return us.createDefaultUser()
	}

	var config UserConfig
	if _, err := toml.DecodeFile(us.filePath, &config); err != nil {
		return fmt.Errorf("failed to parse users file: %w", err)
	}

	needsSave := false
	for i := range config.Users {
		user := &config.Users[i]

		if !isHashedPassword(user.Password) {
			hashedPassword, err := hashPassword(user.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", user.Email, err)
			}
			user.Password = hashedPassword
			needsSave = true
		}

		us.users[normalizeEmail(user.Email)] = user
	}

	if needsSave {
		return us.saveUsers(&config)
	}

	return nil
}

// createDefaultUser writes a default admin with a random password,
// printed once to stdout so the owner can log in and change it.
func (us *UserStore) createDefaultUser() error {
	password, err := generateRandomPassword(12)
	if err != nil {
		return fmt.Errorf("failed to generate default password: %w", err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash default password: %w", err)
	}

	defaultUser := User{
		Email:    "admin@localhost",
		Password: hashedPassword,
		Created:  time.Now().Format("2006-01-02 15:04:05"),
	}

	config := UserConfig{Users: []User{defaultUser}}
	us.users[defaultUser.Email] = &defaultUser

	if err := us.saveUsers(&config); err != nil {
		return err
	}

	fmt.Printf("\n"+
		"=====================================\n"+
		"DEFAULT ADMIN ACCOUNT CREATED\n"+
		"=====================================\n"+
		"Email:    admin@localhost\n"+
		"Password: %s\n"+
		"=====================================\n"+
		"Please change this password by editing users.toml\n\n", password)

	return nil
}

// saveUsers writes the user configuration back to the TOML file.
func (us *UserStore) saveUsers(config *UserConfig) error {
	file, err := os.Create(us.filePath)
	if err != nil {
		return fmt.Errorf("failed to create users file: %w", err)
	}
	defer file.Close()

	header := `# Vitrine Admin Accounts
# Passwords are automatically hashed when the server starts.
# To change a password, replace the hash with a new plaintext password.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write users file header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode users to TOML: %w", err)
	}

	return nil
}

// Authenticate checks the provided email and password.
func (us *UserStore) Authenticate(email, password string) bool {
	user, exists := us.users[normalizeEmail(email)]
	if !exists {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// GetUser returns a user by email, without the password hash.
func (us *UserStore) GetUser(email string) *User {
	user, exists := us.users[normalizeEmail(email)]
	if !exists {
		return nil
	}

	return &User{
		Email:   user.Email,
		Created: user.Created,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword hashes a plaintext password using bcrypt.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isHashedPassword checks if a password string is already a bcrypt hash.
func isHashedPassword(password string) bool {
	return len(password) >= 4 &&
		password[0] == '$' &&
		password[1] == '2' &&
		(password[2] == 'a' || password[2] == 'b' || password[2] == 'x' || password[2] == 'y') &&
		password[3] == '$'
}

// generateRandomPassword generates a cryptographically secure password.
func generateRandomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
