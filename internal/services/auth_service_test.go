package services

import (
	"strings"
	"testing"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

type stubAuthStore struct {
	users map[string]*models.User // keyed by lowercased email
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{users: map[string]*models.User{}}
}

func (s *stubAuthStore) FindUserByEmail(email string) (*models.User, error) {
	return s.users[strings.ToLower(email)], nil
}

func (s *stubAuthStore) AddUser(u *models.User) error {
	s.users[strings.ToLower(u.Email)] = u
	return nil
}

func staticSigner(uid string, role models.Role, email string, ttl time.Duration) (string, error) {
	return "token-" + uid, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, staticSigner)

	res, err := svc.Register("emily@example.com", "pa55word", "Emily")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", res.Role)
	}
	if res.Token == "" || res.UserID == "" {
		t.Fatalf("incomplete result: %+v", res)
	}
	u := store.users["emily@example.com"]
	if u == nil {
		t.Fatalf("user not stored")
	}
	if string(u.PassHash) == "pa55word" {
		t.Fatalf("password stored in the clear")
	}

	login, err := svc.Login("emily@example.com", "pa55word")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if login.UserID != res.UserID || login.Name != "Emily" {
		t.Fatalf("login result = %+v, want same user", login)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), staticSigner)
	if _, err := svc.Register("a@b.com", "secret1", "A"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	_, err := svc.Register("a@b.com", "secret2", "B")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("duplicate email err = %v, want conflict", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), staticSigner)
	if _, err := svc.Register("", "secret", "A"); err == nil {
		t.Fatalf("empty email accepted")
	}
	if _, err := svc.Register("a@b.com", "  ", "A"); err == nil {
		t.Fatalf("blank password accepted")
	}
}

func TestLoginRejections(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), staticSigner)
	if _, err := svc.Register("a@b.com", "secret", "A"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, err := svc.Login("a@b.com", "wrong")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("wrong password err = %v, want unauthorized", err)
	}

	_, err = svc.Login("nobody@b.com", "secret")
	se, ok = AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("unknown email err = %v, want unauthorized", err)
	}
}
