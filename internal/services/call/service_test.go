package call

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handybob/callops/internal/domain"
	"github.com/handybob/callops/internal/telephony"
)

// fakeStore is an in-memory Store that records what the service persists.
type fakeStore struct {
	jobs      map[string]*domain.Job
	customers map[string]*domain.Customer
	created   []*domain.CallRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:      make(map[string]*domain.Job),
		customers: make(map[string]*domain.Customer),
	}
}

func (f *fakeStore) CreateCall(_ context.Context, call *domain.CallRecord) error {
	call.ID = "call-test"
	f.created = append(f.created, call)
	return nil
}

func (f *fakeStore) SetCallSid(context.Context, string, string) error { return nil }

func (f *fakeStore) UpdateCallStatus(context.Context, string, string, string, string, string) error {
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, id string) (*domain.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	return f.customers[id], nil
}

func newTestService(store Store) *Service {
	return NewService(Config{
		AccountSID:    "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		AuthToken:     "test-token",
		FromNumber:    "+15550000001",
		PublicBaseURL: "https://callops.example.com",
	}, store, nil)
}

func TestPlaceCallDisabledWithoutCredentials(t *testing.T) {
	store := newFakeStore()
	svc := NewService(Config{FromNumber: "+15550000001"}, store, nil)

	require.False(t, svc.IsEnabled())

	_, err := svc.PlaceCall(context.Background(), PlaceCallInput{
		WorkspaceID: "ws-1",
		ToPhone:     "+15550000002",
	})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, store.created)
}

func TestPlaceCallForeignJobIsForbidden(t *testing.T) {
	store := newFakeStore()
	store.jobs["job-1"] = &domain.Job{ID: "job-1", WorkspaceID: "ws-other"}
	svc := newTestService(store)

	_, err := svc.PlaceCall(context.Background(), PlaceCallInput{
		WorkspaceID: "ws-1",
		ToPhone:     "+15550000002",
		JobID:       "job-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkageForbidden)
	assert.Empty(t, store.created, "no call record may exist for a cross-tenant linkage")
}

func TestPlaceCallForeignCustomerIsForbidden(t *testing.T) {
	store := newFakeStore()
	store.customers["cust-1"] = &domain.Customer{ID: "cust-1", WorkspaceID: "ws-other"}
	svc := newTestService(store)

	_, err := svc.PlaceCall(context.Background(), PlaceCallInput{
		WorkspaceID: "ws-1",
		ToPhone:     "+15550000002",
		CustomerID:  "cust-1",
	})

	assert.ErrorIs(t, err, ErrLinkageForbidden)
	assert.Empty(t, store.created)
}

func TestPlaceCallUnknownJobNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.PlaceCall(context.Background(), PlaceCallInput{
		WorkspaceID: "ws-1",
		ToPhone:     "+15550000002",
		JobID:       "job-missing",
	})

	assert.ErrorIs(t, err, ErrLinkageNotFound)
	assert.NotErrorIs(t, err, ErrLinkageForbidden)
	assert.Empty(t, store.created)
}

func TestPlaceCallRequiresDestination(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.PlaceCall(context.Background(), PlaceCallInput{WorkspaceID: "ws-1"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLinkageNotFound))
}

func TestCallbackURLCarriesCorrelation(t *testing.T) {
	svc := newTestService(newFakeStore())
	record := &domain.CallRecord{ID: "call-42", WorkspaceID: "ws-1"}

	got := svc.callbackURL("/twilio/voice/status", record)

	assert.Equal(t, "https://callops.example.com/twilio/voice/status?call=call-42&workspace=ws-1", got)
}

var _ telephony.EventPublisher = (*RedisEventPublisher)(nil)
