package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	users  map[string]*user.User
	nextID int
	hashes map[string]string
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*user.User{}, hashes: map[string]string{}}
}

func (m *memStore) List(context.Context, user.ListFilters) ([]*user.User, error) {
	out := []*user.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindByEmail(_ context.Context, addr string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email != nil && strings.EqualFold(*u.Email, addr) {
			return u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memStore) Create(_ context.Context, u *user.User) error {
	m.nextID++
	u.ID = "u" + string(rune('0'+m.nextID))
	m.users[u.ID] = u
	return nil
}

func (m *memStore) Update(ctx context.Context, id string, req *user.UpdateUserRequest, hash *string) (*user.User, error) {
	u, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		u.Email = req.Email
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if hash != nil {
		u.PasswordHash = hash
	}
	return u, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type fakeEmail struct {
	sent []email.Message
	err  error
}

func (f *fakeEmail) Send(_ context.Context, m email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, string, string, string) {}

func newTestService() (*Service, *memStore, *fakeEmail) {
	store := newMemStore()
	mail := &fakeEmail{}
	svc := NewService(store, mail, email.NewTemplates("https://amayalert.site"), nopAuditor{}, zap.NewNop())
	svc.hashCost = bcrypt.MinCost
	return svc, store, mail
}

var passwordPattern = regexp.MustCompile(`Temporary password: ([A-Za-z0-9]{8})\n`)

func TestCreateMailsCredentials(t *testing.T) {
	svc, store, mail := newTestService()

	resp, err := svc.Create(context.Background(), &user.CreateUserRequest{
		Email:    "  Juan@Example.com ",
		FullName: "Juan dela Cruz",
	}, "admin-1")
	require.NoError(t, err)

	assert.True(t, resp.EmailSent)
	assert.Empty(t, resp.Password)
	assert.Equal(t, user.RoleUser, resp.User.Role)
	assert.Equal(t, "juan@example.com", *resp.User.Email)
	assert.Nil(t, resp.User.PhoneNumber)

	require.Len(t, mail.sent, 1)
	match := passwordPattern.FindStringSubmatch(mail.sent[0].Text)
	require.Len(t, match, 2)

	stored := store.users[resp.User.ID]
	require.NotNil(t, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte(match[1])))
}

func TestCreateReturnsPasswordWhenMailFails(t *testing.T) {
	svc, store, mail := newTestService()
	mail.err = errors.New("smtp down")

	resp, err := svc.Create(context.Background(), &user.CreateUserRequest{Email: "ana@example.com"}, "admin-1")
	require.NoError(t, err)
	assert.False(t, resp.EmailSent)
	assert.Len(t, resp.Password, temporaryPasswordLength)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*store.users[resp.User.ID].PasswordHash), []byte(resp.Password)))
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &user.CreateUserRequest{Email: " "}, "admin-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.Create(ctx, &user.CreateUserRequest{Email: "not-an-email"}, "admin-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.Create(ctx, &user.CreateUserRequest{Email: "a@example.com", Role: "root"}, "admin-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &user.CreateUserRequest{Email: "a@example.com"}, "admin-1")
	require.NoError(t, err)

	_, err = svc.Create(ctx, &user.CreateUserRequest{Email: "A@example.com"}, "admin-1")
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestUpdatePassword(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, &user.CreateUserRequest{Email: "a@example.com"}, "admin-1")
	require.NoError(t, err)
	id := resp.User.ID

	short := "abc1234"
	_, err = svc.Update(ctx, id, &user.UpdateUserRequest{Password: &short}, "admin-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	long := "correct-horse"
	_, err = svc.Update(ctx, id, &user.UpdateUserRequest{Password: &long}, "admin-1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*store.users[id].PasswordHash), []byte(long)))
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "admin-1", "admin-1"), xerrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, "missing", "admin-1"), xerrors.ErrNotFound)
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p, err := generatePassword(temporaryPasswordLength)
		require.NoError(t, err)
		assert.Regexp(t, `^[A-Za-z0-9]{8}$`, p)
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1)
}
