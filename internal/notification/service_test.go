// internal/notification/service_test.go
package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"
	"school-pickup/internal/push"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockStore struct {
	CreateWithRecipientsFunc func(ctx context.Context, n *models.Notification, userIDs []int64) error
	SetExternalIDFunc        func(ctx context.Context, id int64, externalID string, typ models.NotificationType) error
	GetFunc                  func(ctx context.Context, id int64) (*models.Notification, error)
	FindByExternalIDFunc     func(ctx context.Context, externalID string) (*models.Notification, error)
	RecipientsFunc           func(ctx context.Context, notificationID int64) ([]models.NotificationRecipient, error)
	DeleteFunc               func(ctx context.Context, id int64) error
	MarkAsReadFunc           func(ctx context.Context, notificationID, userID int64, at time.Time) (bool, error)
	MarkAllAsReadFunc        func(ctx context.Context, userID int64, limit int, now time.Time) (int64, error)
	CountUnreadFunc          func(ctx context.Context, userID int64) (int64, error)
	ListForUserFunc          func(ctx context.Context, userID int64, params pagination.Params) (*pagination.Page[models.UserNotification], error)
	ListForAdminFunc         func(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error)
}

func (m *MockStore) CreateWithRecipients(ctx context.Context, n *models.Notification, userIDs []int64) error {
	return m.CreateWithRecipientsFunc(ctx, n, userIDs)
}

func (m *MockStore) SetExternalID(ctx context.Context, id int64, externalID string, typ models.NotificationType) error {
	return m.SetExternalIDFunc(ctx, id, externalID, typ)
}

func (m *MockStore) Get(ctx context.Context, id int64) (*models.Notification, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockStore) FindByExternalID(ctx context.Context, externalID string) (*models.Notification, error) {
	return m.FindByExternalIDFunc(ctx, externalID)
}

func (m *MockStore) Recipients(ctx context.Context, notificationID int64) ([]models.NotificationRecipient, error) {
	return m.RecipientsFunc(ctx, notificationID)
}

func (m *MockStore) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockStore) MarkAsRead(ctx context.Context, notificationID, userID int64, at time.Time) (bool, error) {
	return m.MarkAsReadFunc(ctx, notificationID, userID, at)
}

func (m *MockStore) MarkAllAsRead(ctx context.Context, userID int64, limit int, now time.Time) (int64, error) {
	return m.MarkAllAsReadFunc(ctx, userID, limit, now)
}

func (m *MockStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return m.CountUnreadFunc(ctx, userID)
}

func (m *MockStore) ListForUser(ctx context.Context, userID int64, params pagination.Params) (*pagination.Page[models.UserNotification], error) {
	return m.ListForUserFunc(ctx, userID, params)
}

func (m *MockStore) ListForAdmin(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error) {
	return m.ListForAdminFunc(ctx, params)
}

type MockUsers struct {
	FindTargetUsersFunc func(ctx context.Context, target models.NotificationTarget) ([]models.User, error)
	GetUserFunc         func(ctx context.Context, id int64) (*models.User, error)
	SetPlayerIDsFunc    func(ctx context.Context, userID int64, ids models.PlayerIDs) error
}

func (m *MockUsers) FindTargetUsers(ctx context.Context, target models.NotificationTarget) ([]models.User, error) {
	return m.FindTargetUsersFunc(ctx, target)
}

func (m *MockUsers) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *MockUsers) SetPlayerIDs(ctx context.Context, userID int64, ids models.PlayerIDs) error {
	return m.SetPlayerIDsFunc(ctx, userID, ids)
}

type MockGateway struct {
	SendToLargeGroupFunc     func(ctx context.Context, playerIDs []string, msg push.Message) error
	ScheduleForPlayerIDsFunc func(ctx context.Context, playerIDs []string, msg push.Message, at time.Time) (push.ScheduleResult, error)
	CancelFunc               func(ctx context.Context, externalID string) error
	SetExternalUserIDFunc    func(ctx context.Context, playerID string, userID int64) error
	UpdateUserTagsFunc       func(ctx context.Context, userID int64, tags map[string]string) error
}

func (m *MockGateway) SendToPlayerIDs(ctx context.Context, playerIDs []string, msg push.Message) error {
	return m.SendToLargeGroupFunc(ctx, playerIDs, msg)
}

func (m *MockGateway) SendToLargeGroup(ctx context.Context, playerIDs []string, msg push.Message) error {
	return m.SendToLargeGroupFunc(ctx, playerIDs, msg)
}

func (m *MockGateway) ScheduleForPlayerIDs(ctx context.Context, playerIDs []string, msg push.Message, at time.Time) (push.ScheduleResult, error) {
	return m.ScheduleForPlayerIDsFunc(ctx, playerIDs, msg, at)
}

func (m *MockGateway) Cancel(ctx context.Context, externalID string) error {
	return m.CancelFunc(ctx, externalID)
}

func (m *MockGateway) SetExternalUserID(ctx context.Context, playerID string, userID int64) error {
	return m.SetExternalUserIDFunc(ctx, playerID, userID)
}

func (m *MockGateway) UpdateUserTags(ctx context.Context, userID int64, tags map[string]string) error {
	if m.UpdateUserTagsFunc == nil {
		return nil
	}
	return m.UpdateUserTagsFunc(ctx, userID, tags)
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 3, 2, 13, 55, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// failingDeps returns fakes that fail the test when touched.
func failingDeps(t *testing.T) (*MockStore, *MockUsers, *MockGateway) {
	store := &MockStore{
		CreateWithRecipientsFunc: func(context.Context, *models.Notification, []int64) error {
			t.Fatal("unexpected CreateWithRecipients")
			return nil
		},
	}
	users := &MockUsers{
		FindTargetUsersFunc: func(context.Context, models.NotificationTarget) ([]models.User, error) {
			t.Fatal("unexpected FindTargetUsers")
			return nil, nil
		},
	}
	gateway := &MockGateway{
		SendToLargeGroupFunc: func(context.Context, []string, push.Message) error {
			t.Fatal("unexpected gateway send")
			return nil
		},
		ScheduleForPlayerIDsFunc: func(context.Context, []string, push.Message, time.Time) (push.ScheduleResult, error) {
			t.Fatal("unexpected gateway schedule")
			return push.ScheduleResult{}, nil
		},
	}
	return store, users, gateway
}

func createTestService(t *testing.T, store Store, users Users, gateway push.Gateway, opts Options) *Service {
	s := NewService(store, users, gateway, nil, opts, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }
	return s
}

func targetUsers() []models.User {
	return []models.User{
		{ID: 70, Role: models.RoleParent, PlayerIDs: models.PlayerIDs{"p-1", "p-2"}},
		{ID: 90, Role: models.RoleSchool, PlayerIDs: models.PlayerIDs{"s-1"}},
		{ID: 91, Role: models.RoleSchool, Email: strPtr("office@greenhill.example")},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_SendNotification_EmptyTargetIsNoop(t *testing.T) {
	store, users, gateway := failingDeps(t)
	s := createTestService(t, store, users, gateway, Options{})

	n, err := s.SendNotification(context.Background(), Request{Title: "t", Message: "m"})
	assert.NoError(t, err)
	assert.Nil(t, n)
}

func TestService_SendNotification_NoUsersIsNoop(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return nil, nil
	}
	s := createTestService(t, store, users, gateway, Options{})

	n, err := s.SendNotification(context.Background(), Request{Target: models.NotificationTarget{UserIDs: []int64{404}}})
	assert.NoError(t, err)
	assert.Nil(t, n)
}

func TestService_SendNotification_Direct(t *testing.T) {
	store, users, gateway := failingDeps(t)

	var gotTarget models.NotificationTarget
	users.FindTargetUsersFunc = func(_ context.Context, target models.NotificationTarget) ([]models.User, error) {
		gotTarget = target
		return targetUsers(), nil
	}

	var stored *models.Notification
	var recipients []int64
	store.CreateWithRecipientsFunc = func(_ context.Context, n *models.Notification, userIDs []int64) error {
		n.ID = 77
		stored, recipients = n, userIDs
		return nil
	}

	var sentIDs []string
	var sentMsg push.Message
	gateway.SendToLargeGroupFunc = func(_ context.Context, ids []string, msg push.Message) error {
		sentIDs, sentMsg = ids, msg
		return nil
	}

	s := createTestService(t, store, users, gateway, Options{})
	nav := &models.NavigationData{Screen: "receiptRequests", Params: map[string]interface{}{"id": int64(11)}}
	n, err := s.SendNotification(context.Background(), Request{
		Title:          "Pickup request approved",
		Message:        "The pickup request for student Sara Ali has been approved",
		NavigationData: nav,
		Type:           models.NotificationDirect,
		Target:         models.NotificationTarget{VendorIDs: []int64{5}, Admins: true},
	})
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, models.NotificationTarget{VendorIDs: []int64{5}, Admins: true}, gotTarget)
	assert.Equal(t, int64(77), n.ID)
	assert.Same(t, stored, n)
	assert.Equal(t, []int64{70, 90, 91}, recipients)
	assert.Equal(t, models.NotificationDirect, n.Type)
	assert.True(t, n.ForAdmin)
	assert.Equal(t, fixedNow, n.ScheduledAt)
	assert.Equal(t, fixedNow, n.CreatedAt)

	assert.Equal(t, []string{"p-1", "p-2", "s-1"}, sentIDs)
	assert.Equal(t, "Pickup request approved", sentMsg.Title)
	assert.Equal(t, nav, sentMsg.NavigationData)
}

func TestService_SendNotification_DefaultsToCustomType(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return []models.User{{ID: 1}}, nil
	}
	store.CreateWithRecipientsFunc = func(context.Context, *models.Notification, []int64) error { return nil }

	s := createTestService(t, store, users, gateway, Options{})
	n, err := s.SendNotification(context.Background(), Request{Target: models.NotificationTarget{AllUsers: true}})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCustom, n.Type)
	assert.False(t, n.ForAdmin)
}

func TestService_SendNotification_GatewayFailureIsSwallowed(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return targetUsers(), nil
	}
	created := false
	store.CreateWithRecipientsFunc = func(context.Context, *models.Notification, []int64) error {
		created = true
		return nil
	}
	gateway.SendToLargeGroupFunc = func(context.Context, []string, push.Message) error {
		return apperrors.NewNotificationSendFailedError("onesignal", errors.New("503"))
	}

	s := createTestService(t, store, users, gateway, Options{})
	n, err := s.SendNotification(context.Background(), Request{Target: models.NotificationTarget{UserIDs: []int64{70}}})
	assert.NoError(t, err)
	assert.NotNil(t, n)
	assert.True(t, created)
}

func TestService_SendNotification_StoreFailure(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return targetUsers(), nil
	}
	store.CreateWithRecipientsFunc = func(context.Context, *models.Notification, []int64) error {
		return apperrors.NewDatabaseInsertFailedError(errors.New("fk violation"))
	}

	s := createTestService(t, store, users, gateway, Options{})
	_, err := s.SendNotification(context.Background(), Request{Target: models.NotificationTarget{UserIDs: []int64{70}}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseInsertFailed))
}

func TestService_SendNotification_Scheduling(t *testing.T) {
	future := fixedNow.Add(2 * time.Hour)

	tests := []struct {
		name         string
		enabled      bool
		wantSchedule bool
	}{
		{name: "scheduling disabled sends now", enabled: false, wantSchedule: false},
		{name: "scheduling enabled", enabled: true, wantSchedule: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, users, gateway := failingDeps(t)
			users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
				return targetUsers(), nil
			}
			store.CreateWithRecipientsFunc = func(_ context.Context, n *models.Notification, _ []int64) error {
				n.ID = 5
				return nil
			}

			var scheduled, sent bool
			var recorded string
			gateway.SendToLargeGroupFunc = func(context.Context, []string, push.Message) error {
				sent = true
				return nil
			}
			gateway.ScheduleForPlayerIDsFunc = func(_ context.Context, _ []string, _ push.Message, at time.Time) (push.ScheduleResult, error) {
				scheduled = true
				assert.Equal(t, future, at)
				return push.ScheduleResult{Success: true, ExternalID: "ext-1"}, nil
			}
			store.SetExternalIDFunc = func(_ context.Context, id int64, ext string, typ models.NotificationType) error {
				assert.Equal(t, int64(5), id)
				assert.Equal(t, models.NotificationScheduled, typ)
				recorded = ext
				return nil
			}

			s := createTestService(t, store, users, gateway, Options{SchedulingEnabled: tt.enabled})
			n, err := s.SendNotification(context.Background(), Request{
				Target:      models.NotificationTarget{UserIDs: []int64{70}},
				ScheduledAt: &future,
			})
			require.NoError(t, err)
			assert.Equal(t, future, n.ScheduledAt)
			assert.Equal(t, tt.wantSchedule, scheduled)
			assert.Equal(t, !tt.wantSchedule, sent)
			if tt.wantSchedule {
				assert.Equal(t, "ext-1", recorded)
				assert.Equal(t, models.NotificationScheduled, n.Type)
				require.NotNil(t, n.ExternalID)
				assert.Equal(t, "ext-1", *n.ExternalID)
			}
		})
	}
}

func TestService_SendNotification_PastScheduleUsesNow(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return []models.User{{ID: 1, PlayerIDs: models.PlayerIDs{"p"}}}, nil
	}
	store.CreateWithRecipientsFunc = func(context.Context, *models.Notification, []int64) error { return nil }
	gateway.SendToLargeGroupFunc = func(context.Context, []string, push.Message) error { return nil }

	past := fixedNow.Add(-time.Hour)
	s := createTestService(t, store, users, gateway, Options{SchedulingEnabled: true})
	n, err := s.SendNotification(context.Background(), Request{
		Target:      models.NotificationTarget{UserIDs: []int64{1}},
		ScheduledAt: &past,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, n.ScheduledAt)
}

func TestService_SendNotification_EmailFallback(t *testing.T) {
	store, users, gateway := failingDeps(t)
	users.FindTargetUsersFunc = func(context.Context, models.NotificationTarget) ([]models.User, error) {
		return targetUsers(), nil
	}
	store.CreateWithRecipientsFunc = func(context.Context, *models.Notification, []int64) error { return nil }
	gateway.SendToLargeGroupFunc = func(context.Context, []string, push.Message) error { return nil }

	var mailedTo []string
	mailer := &MockSESService{
		SendEmailFunc: func(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			mailedTo = append(mailedTo, in.Destination.ToAddresses...)
			assert.Equal(t, "noreply@pickup.example", aws.ToString(in.Source))
			assert.Equal(t, "Parent is waiting", aws.ToString(in.Message.Subject.Data))
			return &ses.SendEmailOutput{}, errors.New("throttled")
		},
	}

	s := NewService(store, users, gateway, mailer, Options{EmailEnabled: true, FromEmail: "noreply@pickup.example"}, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }

	n, err := s.SendNotification(context.Background(), Request{
		Title:  "Parent is waiting",
		Target: models.NotificationTarget{VendorIDs: []int64{5}},
	})
	require.NoError(t, err)
	assert.NotNil(t, n)
	assert.Equal(t, []string{"office@greenhill.example"}, mailedTo)
}

func TestService_MarkAsRead(t *testing.T) {
	store := &MockStore{
		MarkAsReadFunc: func(_ context.Context, nid, uid int64, at time.Time) (bool, error) {
			assert.Equal(t, fixedNow, at)
			return nid == 77 && uid == 70, nil
		},
	}
	s := createTestService(t, store, &MockUsers{}, &MockGateway{}, Options{})

	assert.NoError(t, s.MarkAsRead(context.Background(), 77, 70))

	err := s.MarkAsRead(context.Background(), 77, 71)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestService_MarkAllAsRead_DefaultLimit(t *testing.T) {
	var gotLimit int
	store := &MockStore{
		MarkAllAsReadFunc: func(_ context.Context, _ int64, limit int, now time.Time) (int64, error) {
			gotLimit = limit
			assert.Equal(t, fixedNow, now)
			return 4, nil
		},
	}
	s := createTestService(t, store, &MockUsers{}, &MockGateway{}, Options{})

	n, err := s.MarkAllAsRead(context.Background(), 70, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, DefaultMarkAllLimit, gotLimit)

	_, _ = s.MarkAllAsRead(context.Background(), 70, 10)
	assert.Equal(t, 10, gotLimit)
}

func TestService_GetUserNotifications(t *testing.T) {
	store := &MockStore{
		ListForUserFunc: func(_ context.Context, uid int64, params pagination.Params) (*pagination.Page[models.UserNotification], error) {
			assert.Equal(t, DefaultUserPageLimit, params.Limit)
			return pagination.NewPage([]models.UserNotification{{RecipientID: 1}}, 1, params.Normalize(pagination.DESC), "notification"), nil
		},
		CountUnreadFunc: func(context.Context, int64) (int64, error) { return 3, nil },
	}
	s := createTestService(t, store, &MockUsers{}, &MockGateway{}, Options{})

	res, err := s.GetUserNotifications(context.Background(), 70, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, res.Notifications.Items, 1)
	assert.Equal(t, int64(3), res.UnreadCount)
}

func TestService_CancelScheduledNotification(t *testing.T) {
	var deleted int64
	store := &MockStore{
		FindByExternalIDFunc: func(_ context.Context, ext string) (*models.Notification, error) {
			if ext == "ext-1" {
				return &models.Notification{ID: 5}, nil
			}
			return nil, nil
		},
		DeleteFunc: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	gateway := &MockGateway{
		CancelFunc: func(context.Context, string) error { return errors.New("already sent") },
	}
	s := createTestService(t, store, &MockUsers{}, gateway, Options{})

	require.NoError(t, s.CancelScheduledNotification(context.Background(), "ext-1"))
	assert.Equal(t, int64(5), deleted)

	err := s.CancelScheduledNotification(context.Background(), "missing")
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestService_NotificationLookups(t *testing.T) {
	store := &MockStore{
		GetFunc: func(_ context.Context, id int64) (*models.Notification, error) {
			if id == 1 {
				return &models.Notification{ID: 1}, nil
			}
			return nil, apperrors.NewNotFoundError("notification", id)
		},
		RecipientsFunc: func(_ context.Context, id int64) ([]models.NotificationRecipient, error) {
			if id == 1 {
				return []models.NotificationRecipient{{ID: 10, NotificationID: 1, UserID: 70}}, nil
			}
			return nil, nil
		},
		DeleteFunc: func(_ context.Context, id int64) error {
			if id == 1 {
				return nil
			}
			return apperrors.NewNotFoundError("notification", id)
		},
	}
	s := createTestService(t, store, &MockUsers{}, &MockGateway{}, Options{})
	ctx := context.Background()

	n, err := s.GetNotification(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.ID)
	_, err = s.GetNotification(ctx, 2)
	assert.True(t, apperrors.IsBadRequest(err))

	recipients, err := s.GetNotificationRecipients(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recipients, 1)
	_, err = s.GetNotificationRecipients(ctx, 2)
	assert.True(t, apperrors.IsBadRequest(err))

	assert.NoError(t, s.DeleteNotification(ctx, 1))
	assert.True(t, apperrors.IsBadRequest(s.DeleteNotification(ctx, 2)))
}

func TestService_ListAdminNotifications(t *testing.T) {
	var got pagination.Params
	store := &MockStore{
		ListForAdminFunc: func(_ context.Context, params pagination.Params) (*pagination.Page[models.Notification], error) {
			got = params
			return &pagination.Page[models.Notification]{
				Items:    []models.Notification{{ID: 3}, {ID: 2}},
				Metadata: pagination.BuildMetadata(2, params.Page, params.Limit),
			}, nil
		},
	}
	s := createTestService(t, store, &MockUsers{}, &MockGateway{}, Options{})

	page, err := s.ListAdminNotifications(context.Background(), pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Metadata.TotalItems)
}

func TestService_RegisterDevice(t *testing.T) {
	var saved models.PlayerIDs
	users := &MockUsers{
		GetUserFunc: func(_ context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, PlayerIDs: models.PlayerIDs{"a", "b", "c"}}, nil
		},
		SetPlayerIDsFunc: func(_ context.Context, _ int64, ids models.PlayerIDs) error {
			saved = ids
			return nil
		},
	}
	linkErr := error(nil)
	gateway := &MockGateway{
		SetExternalUserIDFunc: func(_ context.Context, playerID string, userID int64) error {
			assert.Equal(t, "b", playerID)
			assert.Equal(t, int64(70), userID)
			return linkErr
		},
	}
	s := createTestService(t, &MockStore{}, users, gateway, Options{})
	ctx := context.Background()

	require.NoError(t, s.RegisterDevice(ctx, 70, "b"))
	assert.Equal(t, models.PlayerIDs{"b", "a", "c"}, saved)

	linkErr = errors.New("invalid player")
	assert.True(t, apperrors.IsBadRequest(s.RegisterDevice(ctx, 70, "b")))

	saved = nil
	assert.NoError(t, s.RegisterDevice(ctx, 70, ""))
	assert.Nil(t, saved)
}

func TestService_SyncUserTags(t *testing.T) {
	schoolID := int64(3)
	users := &MockUsers{
		GetUserFunc: func(_ context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleSchool, SchoolID: &schoolID}, nil
		},
	}

	tests := []struct {
		name    string
		gwErr   error
		wantErr bool
	}{
		{name: "synced"},
		{name: "provider without tags", gwErr: push.ErrUnsupported},
		{name: "gateway failure", gwErr: errors.New("503"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent map[string]string
			gateway := &MockGateway{
				UpdateUserTagsFunc: func(_ context.Context, userID int64, tags map[string]string) error {
					assert.Equal(t, int64(90), userID)
					sent = tags
					return tt.gwErr
				},
			}
			s := createTestService(t, &MockStore{}, users, gateway, Options{})

			err := s.SyncUserTags(context.Background(), 90)

			assert.Equal(t, map[string]string{"role": "SCHOOL", "schoolId": "3"}, sent)
			if tt.wantErr {
				assert.True(t, apperrors.IsBadRequest(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestService_SyncUserTags_UnknownUser(t *testing.T) {
	users := &MockUsers{
		GetUserFunc: func(_ context.Context, id int64) (*models.User, error) {
			return nil, apperrors.NewNotFoundError("user", id)
		},
	}
	gateway := &MockGateway{
		UpdateUserTagsFunc: func(context.Context, int64, map[string]string) error {
			t.Fatal("unexpected tag update")
			return nil
		},
	}
	s := createTestService(t, &MockStore{}, users, gateway, Options{})

	assert.True(t, apperrors.IsNotFound(s.SyncUserTags(context.Background(), 5)))
}
