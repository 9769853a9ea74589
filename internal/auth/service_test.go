package auth

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
)

// fakeUserStore keys users by normalized email, mirroring the unique index.
type fakeUserStore struct {
	seq     int
	byID    map[string]models.User
	byEmail map[string]string // email -> id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]models.User{}, byEmail: map[string]string{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, name, email, hashedPw, role string) (*models.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return nil, apperr.DuplicateEmail()
	}
	f.seq++
	u := models.User{ID: string(rune('0' + f.seq)), Name: name, Email: email, Password: hashedPw, Role: role}
	f.byID[u.ID] = u
	f.byEmail[email] = u.ID
	return &u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	u := f.byID[id]
	return &u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (f *fakeUserStore) UpdateUserName(ctx context.Context, id, name string) (*models.User, error) {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name = name
	f.byID[id] = *u
	return u, nil
}

func (f *fakeUserStore) UpdateUserAvatar(ctx context.Context, id, avatarKey string) (*models.User, error) {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.AvatarKey = avatarKey
	f.byID[id] = *u
	return u, nil
}

// testService uses the minimum bcrypt cost so the suite stays fast; the
// production constructor pins cost 12.
func testService(f *fakeUserStore) *Service {
	return &Service{users: f, cost: bcrypt.MinCost}
}

func TestRegisterHashesAndDefaultsRole(t *testing.T) {
	f := newFakeUserStore()
	svc := testService(f)

	u, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Alice", Email: "Alice@Example.com", Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", u.Role, models.RoleUser)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Password == "correct horse battery" {
		t.Fatalf("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("correct horse battery")) != nil {
		t.Fatalf("stored hash does not verify against the password")
	}
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	f := newFakeUserStore()
	svc := testService(f)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "longenough",
	}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Imposter", Email: "ALICE@example.com", Password: "alsolongenough",
	})
	if apperr.KindOf(err) != apperr.KindDuplicateEmail {
		t.Fatalf("expected DUPLICATE_EMAIL, got %v", err)
	}

	// The original account is untouched.
	u, err := f.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || u.Name != "Alice" {
		t.Fatalf("original account changed: %+v, %v", u, err)
	}
}

func TestRegisterValidationPerField(t *testing.T) {
	svc := testService(newFakeUserStore())
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "A", Email: "nope", Password: "short",
	})
	e := apperr.From(err)
	if e.Kind != apperr.KindValidation {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if e.Fields[field] == "" {
			t.Errorf("missing reason for %q: %v", field, e.Fields)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFakeUserStore()
	svc := testService(f)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "opensesame",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "Alice@Example.com", "opensesame"); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong"); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("wrong password: got %v, want UNAUTHENTICATED", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "whatever"); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("unknown email: got %v, want UNAUTHENTICATED", err)
	}
}

func TestUpdateProfileValidatesName(t *testing.T) {
	f := newFakeUserStore()
	svc := testService(f)
	ctx := context.Background()

	u, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "opensesame",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.UpdateProfile(ctx, u.ID, "  Alice Liddell  ")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.Name != "Alice Liddell" {
		t.Errorf("name = %q, want trimmed", got.Name)
	}

	if _, err := svc.UpdateProfile(ctx, u.ID, "x"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}
