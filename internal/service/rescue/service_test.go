package rescue

import (
	"context"
	"errors"
	"testing"
	"time"

	"amayalert-service/internal/domain/rescue"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type memStore struct {
	items map[int64]*rescue.Rescue
}

func (m *memStore) List(context.Context, rescue.ListFilters) ([]*rescue.Rescue, error) {
	out := []*rescue.Rescue{}
	for _, r := range m.items {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*rescue.Rescue, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, item *rescue.Rescue) error {
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

type userLookup map[string]*user.User

func (u userLookup) FindByID(_ context.Context, id string) (*user.User, error) {
	if v, ok := u[id]; ok {
		return v, nil
	}
	return nil, xerrors.ErrNotFound
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

type smsCall struct{ phone, body string }

type fakeSMS struct {
	sent []smsCall
	err  error
}

func (f *fakeSMS) Send(_ context.Context, phone, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, smsCall{phone, body})
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, string, string, string) {}

func strPtr(s string) *string { return &s }

type UpdateSuite struct {
	suite.Suite
	store *memStore
	mail  *fakeEmail
	sms   *fakeSMS
	svc   *Service
	now   time.Time
}

func (s *UpdateSuite) SetupTest() {
	s.now = time.Date(2025, 7, 4, 10, 30, 0, 0, time.UTC)
	s.store = &memStore{items: map[int64]*rescue.Rescue{
		1: {ID: 1, Title: "Trapped on roof", Status: rescue.StatusPending, Priority: 3,
			UserID: strPtr("u1"), ContactPhone: strPtr("09171234567")},
		2: {ID: 2, Title: "Flooded road", Status: rescue.StatusPending, Priority: 2},
	}}
	users := userLookup{"u1": {ID: "u1", Email: strPtr("maria@example.com"), PhoneNumber: strPtr("09999999999")}}
	s.mail = &fakeEmail{}
	s.sms = &fakeSMS{}
	s.svc = NewService(s.store, users, s.mail, email.NewTemplates("https://amayalert.site"), s.sms, nopAuditor{}, zap.NewNop())
	s.svc.now = func() time.Time { return s.now }
}

func (s *UpdateSuite) TestStatusChangeSendsSMSAndEmail() {
	status := rescue.StatusInProgress
	res, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Status: &status}, "admin-1")
	s.Require().NoError(err)

	s.Require().Len(s.sms.sent, 1)
	s.Equal("09171234567", s.sms.sent[0].phone)
	s.Equal(`Rescue update: your request "Trapped on roof" is now in progress.`, s.sms.sent[0].body)

	s.Require().Len(s.mail.sent, 1)
	s.Equal("maria@example.com", s.mail.sent[0].To)

	s.Equal(1, res.Notifications.SMS.Sent)
	s.Equal(1, res.Notifications.Email.Sent)
	s.Equal(0, res.Notifications.Push.Sent)
	s.Nil(res.Rescue.CompletedAt)
}

func (s *UpdateSuite) TestCompletionSetsCompletedAt() {
	status := rescue.StatusCompleted
	res, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Status: &status}, "admin-1")
	s.Require().NoError(err)
	s.Require().NotNil(res.Rescue.CompletedAt)
	s.True(res.Rescue.CompletedAt.Equal(s.now))
	s.Require().NotNil(s.store.items[1].CompletedAt)
}

func (s *UpdateSuite) TestNotesOnlyDoesNotNotify() {
	res, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Notes: strPtr(" team en route ")}, "admin-1")
	s.Require().NoError(err)
	s.Empty(s.sms.sent)
	s.Empty(s.mail.sent)
	s.Equal("team en route", *res.Rescue.Notes)
}

func (s *UpdateSuite) TestSendEmailWithoutStatusChange() {
	_, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{SendEmail: true}, "admin-1")
	s.Require().NoError(err)
	s.Empty(s.sms.sent)
	s.Len(s.mail.sent, 1)
}

func (s *UpdateSuite) TestNoContactSkipsNotifications() {
	status := rescue.StatusCancelled
	res, err := s.svc.Update(context.Background(), 2, &rescue.UpdateRescueRequest{Status: &status}, "admin-1")
	s.Require().NoError(err)
	s.Empty(s.sms.sent)
	s.Empty(s.mail.sent)
	s.Equal(0, res.Notifications.Total())
}

func (s *UpdateSuite) TestDeliveryFailuresDoNotFailUpdate() {
	s.sms.err = errors.New("throttled")
	s.mail.err = errors.New("smtp down")
	status := rescue.StatusInProgress

	res, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Status: &status}, "admin-1")
	s.Require().NoError(err)
	s.Len(res.Notifications.SMS.Errors, 1)
	s.Len(res.Notifications.Email.Errors, 1)
	s.Equal(rescue.StatusInProgress, s.store.items[1].Status)
}

func (s *UpdateSuite) TestValidation() {
	bad := rescue.Status("lost")
	_, err := s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Status: &bad}, "admin-1")
	s.ErrorIs(err, xerrors.ErrInvalidInput)

	prio := 9
	_, err = s.svc.Update(context.Background(), 1, &rescue.UpdateRescueRequest{Priority: &prio}, "admin-1")
	s.ErrorIs(err, xerrors.ErrInvalidInput)

	_, err = s.svc.Update(context.Background(), 99, &rescue.UpdateRescueRequest{}, "admin-1")
	s.ErrorIs(err, xerrors.ErrNotFound)
}

func TestUpdateSuite(t *testing.T) {
	suite.Run(t, new(UpdateSuite))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(&memStore{items: map[int64]*rescue.Rescue{}}, nil, &fakeEmail{}, email.NewTemplates(""), &fakeSMS{}, nopAuditor{}, zap.NewNop())

	_, err := svc.List(context.Background(), rescue.ListFilters{Status: "lost"})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	items, err := svc.List(context.Background(), rescue.ListFilters{Status: "pending"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
