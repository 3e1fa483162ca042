package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
	"github.com/marmos91/sdcgo/pkg/soap"
	"github.com/marmos91/sdcgo/pkg/subscription/pool"
)

type fakeCodec struct{}

func (fakeCodec) Encode(msg soap.Message) ([]byte, error) { return []byte(msg.Action), nil }
func (fakeCodec) Decode(data []byte) (soap.Message, error) { return soap.Message{}, nil }

type fakeTransport struct {
	mu      sync.Mutex
	fail    bool
	posts   int
	closed  bool
}

func (f *fakeTransport) Post(_ context.Context, _ string, _ []byte, _ []string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts++
	if f.fail {
		return nil, mdiberrors.NewTransportError("dead:8080", assert.AnError)
	}
	return nil, nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeFactory struct {
	mu         sync.Mutex
	transports map[string]*fakeTransport
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{transports: make(map[string]*fakeTransport)}
}

func (f *fakeFactory) NewTransport(netloc string, _ time.Duration) (soap.Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transports[netloc]
	if !ok {
		t = &fakeTransport{}
		f.transports[netloc] = t
	}
	return t, nil
}

func testManager(factory *fakeFactory) *Manager {
	p := pool.New(factory, time.Second)
	return NewManager(p, fakeCodec{}, DispatchPathSuffix, "http://localhost:9999/", Config{
		MaxSubscriptionDuration: time.Hour,
		MinSubscriptionDuration: time.Minute,
		MaxNotifyErrors:         1,
		RoundTripSamples:        20,
	})
}

func TestManager_SubscribeRenewGetStatusUnsubscribe(t *testing.T) {
	m := testManager(newFakeFactory())

	s, err := m.Subscribe(SubscribeRequest{NotifyTo: "http://peer:8080/notify", RequestedDuration: 5 * time.Minute})
	require.NoError(t, err)
	require.NotNil(t, s)

	key := DispatchKeyForPathSuffix(s.DispatchPathSuffix)

	remaining, err := m.GetStatus(key)
	require.NoError(t, err)
	assert.InDelta(t, 5*time.Minute, remaining, float64(time.Second))

	renewed, err := m.Renew(key, 10*time.Minute)
	require.NoError(t, err)
	assert.InDelta(t, 10*time.Minute, renewed.RemainingSeconds(), float64(time.Second))

	require.NoError(t, m.Unsubscribe(key))
	_, err = m.GetStatus(key)
	assert.Error(t, err)
}

func TestManager_SendToSubscribersOnlyMatchingFilters(t *testing.T) {
	factory := newFakeFactory()
	m := testManager(factory)

	_, err := m.Subscribe(SubscribeRequest{NotifyTo: "http://peer:8080/notify", Filters: []string{"EpisodicMetricReport"}})
	require.NoError(t, err)
	_, err = m.Subscribe(SubscribeRequest{NotifyTo: "http://other:8080/notify", Filters: []string{"EpisodicAlertReport"}})
	require.NoError(t, err)

	r := report.BuildEpisodic(mdib.ReportFamilyMetric, mdib.MdibVersionGroup{}, nil)
	m.SendToSubscribers(context.Background(), "EpisodicMetricReport", r)

	factory.mu.Lock()
	defer factory.mu.Unlock()
	assert.Equal(t, 1, factory.transports["peer:8080"].posts)
	assert.Nil(t, factory.transports["other:8080"])
}

func TestManager_HousekeepingDropsConnectionErroredPeerAndSiblings(t *testing.T) {
	factory := newFakeFactory()
	m := testManager(factory)

	s1, err := m.Subscribe(SubscribeRequest{NotifyTo: "http://dead:8080/a"})
	require.NoError(t, err)
	s2, err := m.Subscribe(SubscribeRequest{NotifyTo: "http://dead:8080/b"})
	require.NoError(t, err)

	// Pre-create the transport for this netloc and mark it failing so the
	// fan-out attempt reports a connection error.
	tr, err := factory.NewTransport("dead:8080", time.Second)
	require.NoError(t, err)
	tr.(*fakeTransport).fail = true

	r := report.BuildEpisodic(mdib.ReportFamilyMetric, mdib.MdibVersionGroup{}, nil)
	m.SendToSubscribers(context.Background(), "EpisodicMetricReport", r)

	assert.False(t, s1.IsValid())
	assert.False(t, s2.IsValid())

	key := DispatchKeyForPathSuffix(s1.DispatchPathSuffix)
	_, err = m.GetStatus(key)
	assert.Error(t, err)
}
