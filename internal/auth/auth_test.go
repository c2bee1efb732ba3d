package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// fakeUserStore is an in-memory UserStore for service tests.
type fakeUserStore struct {
	users  map[string]User // keyed by id
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u User) (User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	f.nextID++
	u.ID = "u" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeUserStore) UserByID(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return NewService(newFakeUserStore(), tokens)
}

func validSignup() SignupParams {
	return SignupParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Username:  "ada",
		Password:  "correct-horse",
		Website:   "https://example.com",
	}
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.SignUp(ctx, validSignup())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.ID == "" {
		t.Error("SignUp did not assign an id")
	}
	if u.PasswordHash == "correct-horse" {
		t.Error("password stored in the clear")
	}

	token, logged, err := svc.Login(ctx, "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("Login returned empty token")
	}
	if logged.ID != u.ID {
		t.Errorf("logged in as %q, want %q", logged.ID, u.ID)
	}

	current, err := svc.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.Email != "ada@example.com" {
		t.Errorf("CurrentUser email = %q", current.Email)
	}
}

func TestSignUp_EmailNormalized(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := validSignup()
	p.Email = "  Ada@Example.COM "
	if _, err := svc.SignUp(ctx, p); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "correct-horse"); err != nil {
		t.Errorf("Login with normalized email: %v", err)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, validSignup()); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, validSignup()); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second SignUp = %v, want ErrEmailTaken", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SignupParams)
	}{
		{"missing email", func(p *SignupParams) { p.Email = "" }},
		{"missing username", func(p *SignupParams) { p.Username = "" }},
		{"short password", func(p *SignupParams) { p.Password = "short" }},
		{"missing first name", func(p *SignupParams) { p.FirstName = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validSignup()
			tt.mutate(&p)
			if _, err := svc.SignUp(ctx, p); err == nil {
				t.Error("want validation error")
			}
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, validSignup()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, err := issuer.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "user-42" {
		t.Errorf("subject = %q, want user-42", got)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", -time.Minute)
	token, err := issuer.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify expired = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, _ := a.Issue("user-42")
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}
