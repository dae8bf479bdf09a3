package alert

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"amayalert-service/internal/cache"
	"amayalert-service/internal/domain/alert"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"
	"amayalert-service/internal/service/push"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type memStore struct {
	alerts    map[int64]*alert.Alert
	nextID    int64
	createErr error
	afterList func()
}

func newMemStore() *memStore {
	return &memStore{alerts: map[int64]*alert.Alert{}}
}

func (m *memStore) Create(_ context.Context, a *alert.Alert) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	a.ID = m.nextID
	m.alerts[a.ID] = a
	return nil
}

func (m *memStore) List(_ context.Context, f alert.ListFilters) ([]*alert.Alert, error) {
	out := []*alert.Alert{}
	for id := int64(1); id <= m.nextID; id++ {
		a, ok := m.alerts[id]
		if !ok || a.DeletedAt != nil {
			continue
		}
		if f.AlertLevel != "" && string(a.AlertLevel) != f.AlertLevel {
			continue
		}
		out = append(out, a)
	}
	if hook := m.afterList; hook != nil {
		m.afterList = nil
		hook()
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*alert.Alert, error) {
	a, ok := m.alerts[id]
	if !ok || a.DeletedAt != nil {
		return nil, xerrors.ErrNotFound
	}
	return a, nil
}

func (m *memStore) Update(ctx context.Context, id int64, req *alert.UpdateAlertRequest) (*alert.Alert, error) {
	a, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if req.AlertLevel != nil {
		a.AlertLevel = *req.AlertLevel
	}
	return a, nil
}

func (m *memStore) SoftDelete(ctx context.Context, id int64) error {
	a, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	now := a.CreatedAt
	a.DeletedAt = &now
	return nil
}

type recipients []*user.User

func (r recipients) ListRecipients(context.Context) ([]*user.User, error) { return r, nil }

type fakeEmail struct{ sent []email.Message }

func (f *fakeEmail) Send(_ context.Context, m email.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

type fakeSMS struct {
	bodies []string
	err    error
}

func (f *fakeSMS) Send(_ context.Context, _, body string) error {
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

type fakePush struct {
	calls int
	err   error
}

func (f *fakePush) Send(context.Context, push.Notification) error {
	f.calls++
	return f.err
}

type fakeAuditor struct{ contents []string }

func (f *fakeAuditor) Record(_ context.Context, _, _, content string) {
	f.contents = append(f.contents, content)
}

type fakePublisher struct{ alerts []*alert.Alert }

func (f *fakePublisher) BroadcastAlert(a *alert.Alert) { f.alerts = append(f.alerts, a) }

func strPtr(s string) *string { return &s }

type BroadcastSuite struct {
	suite.Suite
	store     *memStore
	email     *fakeEmail
	sms       *fakeSMS
	push      *fakePush
	auditor   *fakeAuditor
	publisher *fakePublisher
	cache     *cache.ListCache
}

func (s *BroadcastSuite) SetupTest() {
	s.store = newMemStore()
	s.email = &fakeEmail{}
	s.sms = &fakeSMS{}
	s.push = &fakePush{}
	s.auditor = &fakeAuditor{}
	s.publisher = &fakePublisher{}
	s.cache = nil
}

func (s *BroadcastSuite) useRedisCache() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	s.cache = cache.NewListCache(client, time.Minute, zap.NewNop())
}

func (s *BroadcastSuite) service(users ...*user.User) *Service {
	return NewService(Deps{
		Store:      s.store,
		Recipients: recipients(users),
		Email:      s.email,
		Templates:  email.NewTemplates("https://amayalert.site"),
		SMS:        s.sms,
		Push:       s.push,
		Auditor:    s.auditor,
		Publisher:  s.publisher,
		Cache:      s.cache,
		BaseURL:    "https://amayalert.site",
		Logger:     zap.NewNop(),
	})
}

func (s *BroadcastSuite) TestFloodWarningBothChannels() {
	s.push.err = xerrors.ErrNotConfigured
	svc := s.service(
		&user.User{ID: "u-email", Email: strPtr("ana@example.com"), Role: user.RoleUser},
		&user.User{ID: "u-phone", PhoneNumber: strPtr("09171234567"), Role: user.RoleUser},
	)

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{
		Title:              "Flood Warning",
		Content:            "Evacuate now",
		AlertLevel:         alert.LevelCritical,
		NotificationMethod: alert.MethodBoth,
	}, "admin-1")
	s.Require().NoError(err)

	s.Equal(1, res.Notifications.Email.Sent)
	s.Equal(1, res.Notifications.SMS.Sent)
	s.Equal(0, res.Notifications.Push.Sent)
	s.Equal(alert.LevelCritical, res.Alert.AlertLevel)
	s.Equal(alert.LevelCritical, s.store.alerts[res.Alert.ID].AlertLevel)
	s.Equal("Alert created. Notifications sent - push: 0, email: 1, sms: 1 (method: both)", res.Message)
	s.Equal([]string{`Created alert "Flood Warning" (push=0, email=1, sms=1)`}, s.auditor.contents)
	s.Len(s.publisher.alerts, 1)
	s.LessOrEqual(res.Notifications.Total(), 2*3)
}

func (s *BroadcastSuite) TestDefaultsToMediumAndAppPush() {
	svc := s.service(&user.User{ID: "u1", Email: strPtr("a@example.com"), PhoneNumber: strPtr("09171234567")})

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{
		Title: "Heat advisory", Content: "Stay hydrated",
	}, "")
	s.Require().NoError(err)

	s.Equal(alert.LevelMedium, res.Alert.AlertLevel)
	s.Equal(1, res.Notifications.Push.Sent)
	s.Equal(1, res.Notifications.Email.Sent)
	s.Equal(0, res.Notifications.SMS.Sent)
	s.Empty(s.sms.bodies)
	s.Contains(res.Message, "(method: app_push)")
}

func (s *BroadcastSuite) TestWhitespaceTitleOrContentRejected() {
	svc := s.service()

	_, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "   ", Content: "x"}, "")
	var ve *xerrors.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Equal("Title is required", ve.Message)

	_, err = svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "x", Content: "\t\n"}, "")
	s.Require().ErrorAs(err, &ve)
	s.Equal("Content is required", ve.Message)

	s.Empty(s.store.alerts)
}

func (s *BroadcastSuite) TestInvalidLevelAndMethodRejected() {
	svc := s.service()

	_, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c", AlertLevel: "extreme"}, "")
	s.ErrorIs(err, xerrors.ErrInvalidInput)

	_, err = svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c", NotificationMethod: "pigeon"}, "")
	s.ErrorIs(err, xerrors.ErrInvalidInput)
	s.Empty(s.store.alerts)
}

func (s *BroadcastSuite) TestPersistenceFailureSkipsNotifications() {
	s.store.createErr = errors.New("connection refused")
	svc := s.service(&user.User{ID: "u1", Email: strPtr("a@example.com")})

	_, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
	s.Error(err)
	s.Empty(s.email.sent)
	s.Zero(s.push.calls)
	s.Empty(s.auditor.contents)
}

func (s *BroadcastSuite) TestRecipientWithoutContactIsSkippedSilently() {
	svc := s.service(&user.User{ID: "u1"})

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{
		Title: "t", Content: "c", NotificationMethod: alert.MethodSMS,
	}, "")
	s.Require().NoError(err)

	s.Zero(res.Notifications.Total())
	s.Empty(res.Notifications.SMS.Errors)
	s.Empty(res.Notifications.Email.Errors)
	s.Empty(res.Notifications.Push.Errors)
	s.Zero(s.push.calls)
}

func (s *BroadcastSuite) TestNoRecipients() {
	svc := s.service()

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c", NotificationMethod: alert.MethodBoth}, "")
	s.Require().NoError(err)
	s.Zero(res.Notifications.Total())
	s.NotNil(res.Notifications.Push.Errors)
}

func (s *BroadcastSuite) TestPushOutageIsAnnotatedAndDoesNotStopOtherChannels() {
	s.push.err = &push.VendorError{StatusCode: http.StatusServiceUnavailable, Body: "down"}
	svc := s.service(&user.User{ID: "u1", Email: strPtr("a@example.com")})

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
	s.Require().NoError(err)

	s.Require().Len(res.Notifications.Push.Errors, 1)
	s.Equal("push failed for u1: 503 down (push vendor outage)", res.Notifications.Push.Errors[0])
	s.Equal(1, res.Notifications.Email.Sent)
}

func (s *BroadcastSuite) TestSMSFailureRecorded() {
	s.sms.err = errors.New("opted out")
	svc := s.service(&user.User{ID: "u1", PhoneNumber: strPtr("09171234567")})

	res, err := svc.CreateAndBroadcast(context.Background(), &alert.CreateAlertRequest{Title: "t", Content: "c", NotificationMethod: alert.MethodSMS}, "")
	s.Require().NoError(err)
	s.Equal([]string{"sms failed for 09171234567: opted out"}, res.Notifications.SMS.Errors)
}

func (s *BroadcastSuite) TestSoftDeletedAlertIsHidden() {
	svc := s.service()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateAndBroadcast(ctx, &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
		s.Require().NoError(err)
	}

	s.Require().NoError(svc.SoftDelete(ctx, 5, "admin"))

	list, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	for _, a := range list {
		s.NotEqual(int64(5), a.ID)
	}
	s.Len(list, 4)

	_, err = svc.Get(ctx, 5)
	s.ErrorIs(err, xerrors.ErrNotFound)

	s.ErrorIs(svc.SoftDelete(ctx, 5, "admin"), xerrors.ErrNotFound)
}

func (s *BroadcastSuite) TestDeleteDuringListIsNotCachedStale() {
	s.useRedisCache()
	svc := s.service()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateAndBroadcast(ctx, &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
		s.Require().NoError(err)
	}

	s.store.afterList = func() {
		s.Require().NoError(svc.SoftDelete(ctx, 5, "admin"))
	}
	first, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	s.Len(first, 5)

	second, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	s.Len(second, 4)
	for _, a := range second {
		s.NotEqual(int64(5), a.ID)
	}
}

func (s *BroadcastSuite) TestDefaultListServedFromCache() {
	s.useRedisCache()
	svc := s.service()
	ctx := context.Background()

	_, err := svc.CreateAndBroadcast(ctx, &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
	s.Require().NoError(err)

	first, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	s.Require().Len(first, 1)

	// rows added behind the service are invisible until an invalidation
	s.store.nextID++
	s.store.alerts[s.store.nextID] = &alert.Alert{ID: s.store.nextID, Title: "direct"}

	cached, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	s.Len(cached, 1)

	s.Require().NoError(svc.SoftDelete(ctx, 1, "admin"))
	fresh, err := svc.List(ctx, alert.ListFilters{})
	s.Require().NoError(err)
	s.Require().Len(fresh, 1)
	s.Equal("direct", fresh[0].Title)
}

func (s *BroadcastSuite) TestUpdateValidatesProvidedFields() {
	svc := s.service()
	ctx := context.Background()
	res, err := svc.CreateAndBroadcast(ctx, &alert.CreateAlertRequest{Title: "t", Content: "c"}, "")
	s.Require().NoError(err)

	_, err = svc.Update(ctx, res.Alert.ID, &alert.UpdateAlertRequest{Title: strPtr("  ")}, "")
	s.ErrorIs(err, xerrors.ErrInvalidInput)

	high := alert.LevelHigh
	updated, err := svc.Update(ctx, res.Alert.ID, &alert.UpdateAlertRequest{Title: strPtr(" New "), AlertLevel: &high}, "")
	s.Require().NoError(err)
	s.Equal("New", updated.Title)
	s.Equal(alert.LevelHigh, updated.AlertLevel)
	s.Equal("c", updated.Content)
}

func TestBroadcastSuite(t *testing.T) {
	suite.Run(t, new(BroadcastSuite))
}

func TestComposeSMS(t *testing.T) {
	link := "https://amayalert.site/alerts"

	short := ComposeSMS("Flood Warning", "critical", "  Evacuate now ", link)
	assert.Equal(t, `Alert: "Flood Warning" level critical. Evacuate now https://amayalert.site/alerts`, short)

	long := ComposeSMS("Flood Warning", "critical", strings.Repeat("x", 200), link)
	assert.Equal(t, `Alert: "Flood Warning" level critical.`, long)
}

func TestComposeSMSBudgetBoundary(t *testing.T) {
	link := "https://a.b/alerts"
	base := `Alert: "T" level low.`
	room := 150 - len(base) - len(link) - 2

	exact := ComposeSMS("T", "low", strings.Repeat("y", room), link)
	assert.Len(t, exact, 150)
	assert.True(t, strings.HasSuffix(exact, link))

	over := ComposeSMS("T", "low", strings.Repeat("y", room+1), link)
	assert.Equal(t, base, over)
}

func TestComposeSMSNeverExceedsBudgetWithExtras(t *testing.T) {
	for n := 0; n < 200; n += 7 {
		msg := ComposeSMS("Typhoon", "high", strings.Repeat("z", n), "https://amayalert.site/alerts")
		if strings.HasSuffix(msg, "/alerts") {
			require.LessOrEqual(t, len(msg), 150)
		} else {
			assert.Equal(t, `Alert: "Typhoon" level high.`, msg)
		}
	}
}
