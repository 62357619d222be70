package auth

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists     = errors.New("username already registered")
	ErrBadCredentials = errors.New("incorrect username or password")
)

type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Disabled bool   `json:"disabled"`
	Role     Role   `json:"role"`
}

type storedUser struct {
	User
	hash []byte
}

// Store é um registro de usuários em memória guardado por RWMutex.
// Senhas entram só como hash bcrypt; o texto puro nunca fica retido.
type Store struct {
	mu    sync.RWMutex
	users map[string]storedUser
}

func NewStore() *Store {
	return &Store{users: make(map[string]storedUser)}
}

func (s *Store) Register(u User, password string) error {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return errors.New("username is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}

	u.Username = username
	s.users[username] = storedUser{User: u, hash: hash}
	return nil
}

func (s *Store) Get(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	return u.User, ok
}

// Authenticate confere usuário e senha. Usuário desconhecido e senha errada
// retornam o mesmo erro, sem distinguir qual dos dois falhou.
func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u.User, nil
}
