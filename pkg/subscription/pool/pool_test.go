package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/soap"
)

type fakeTransport struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeTransport) Post(context.Context, string, []byte, []string) ([]byte, error) {
	return nil, nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
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

func TestPool_GetFailsWithoutRegister(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	_, err := p.Get(context.Background(), "peer:8080", nil)
	require.Error(t, err)
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestPool_RegisterThenGetSharesTransport(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() {})
	p.Register("peer:8080", "urn:uuid:epr-2", "sub-2", func() {})

	t1, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err)
	t2, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err)
	assert.Same(t, t1, t2)
}

func TestPool_ForgetEPRDoesNotInvokeCallbacks(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	var fired bool
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() { fired = true })

	err := p.ForgetEPR("peer:8080", "urn:uuid:epr-1")
	require.NoError(t, err)
	assert.False(t, fired, "ForgetEPR is ordinary teardown and must not fire unreachability callbacks")

	_, err = p.Get(context.Background(), "peer:8080", nil)
	assert.True(t, mdiberrors.IsNotFound(err), "last EPR forgotten should drop the netloc entry")
}

func TestPool_ForgetEPRClosesTransportOnlyWhenNetlocEmpty(t *testing.T) {
	factory := newFakeFactory()
	p := New(factory, time.Second)
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() {})
	p.Register("peer:8080", "urn:uuid:epr-2", "sub-2", func() {})

	transport, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err)
	ft := transport.(*fakeTransport)

	require.NoError(t, p.ForgetEPR("peer:8080", "urn:uuid:epr-1"))
	assert.False(t, ft.isClosed(), "transport stays open while another EPR still holds the netloc")

	require.NoError(t, p.ForgetEPR("peer:8080", "urn:uuid:epr-2"))
	assert.True(t, ft.isClosed())
}

func TestPool_ReportUnreachableEPRInvokesCallbacks(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	var fired bool
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() { fired = true })

	err := p.ReportUnreachableEPR("peer:8080", "urn:uuid:epr-1")
	require.NoError(t, err)
	assert.True(t, fired, "ReportUnreachableEPR must notify dependents of the unreachable peer")
}

func TestPool_ReportUnreachableEPROnlyFiresThatEPR(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	var epr1Fired, epr2Fired bool
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() { epr1Fired = true })
	p.Register("peer:8080", "urn:uuid:epr-2", "sub-2", func() { epr2Fired = true })

	require.NoError(t, p.ReportUnreachableEPR("peer:8080", "urn:uuid:epr-1"))
	assert.True(t, epr1Fired)
	assert.False(t, epr2Fired)
}

func TestPool_ReportUnreachableNetlocInvokesEveryCallbackAndCloses(t *testing.T) {
	factory := newFakeFactory()
	p := New(factory, time.Second)
	var fired1, fired2 bool
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() { fired1 = true })
	p.Register("peer:8080", "urn:uuid:epr-2", "sub-2", func() { fired2 = true })

	transport, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err)
	ft := transport.(*fakeTransport)

	require.NoError(t, p.ReportUnreachableNetloc("peer:8080"))
	assert.True(t, fired1)
	assert.True(t, fired2)
	assert.True(t, ft.isClosed())

	_, err = p.Get(context.Background(), "peer:8080", nil)
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestPool_ForgetCallbackRemovesOnlyThatRegistration(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() {})
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-2", func() {})

	require.NoError(t, p.ForgetCallback("sub-1"))
	_, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err, "netloc entry survives while sub-2 is still registered")

	require.NoError(t, p.ForgetCallback("sub-2"))
	_, err = p.Get(context.Background(), "peer:8080", nil)
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestPool_ForgetCallbackUnknownIDIsNotFound(t *testing.T) {
	p := New(newFakeFactory(), time.Second)
	err := p.ForgetCallback("no-such-id")
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestPool_CloseAllInvokesCallbacksAndClosesTransports(t *testing.T) {
	factory := newFakeFactory()
	p := New(factory, time.Second)
	var fired bool
	p.Register("peer:8080", "urn:uuid:epr-1", "sub-1", func() { fired = true })

	transport, err := p.Get(context.Background(), "peer:8080", nil)
	require.NoError(t, err)
	ft := transport.(*fakeTransport)

	p.CloseAll()
	assert.True(t, fired)
	assert.True(t, ft.isClosed())

	_, err = p.Get(context.Background(), "peer:8080", nil)
	assert.True(t, mdiberrors.IsNotFound(err))
}
