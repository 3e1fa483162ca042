package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/store/memory"
	"github.com/marmos91/sdcgo/pkg/mdib/transaction"
	"github.com/marmos91/sdcgo/pkg/periodic"
	"github.com/marmos91/sdcgo/pkg/soap"
	"github.com/marmos91/sdcgo/pkg/subscription"
	"github.com/marmos91/sdcgo/pkg/subscription/pool"
)

type noopCodec struct{}

func (noopCodec) Encode(soap.Message) ([]byte, error) { return nil, nil }
func (noopCodec) Decode([]byte) (soap.Message, error) { return soap.Message{}, nil }

type noopFactory struct{}

func (noopFactory) NewTransport(string, time.Duration) (soap.Transport, error) { return nil, nil }

func newTestManager() *subscription.Manager {
	return subscription.NewManager(pool.New(noopFactory{}, time.Second), noopCodec{}, subscription.DispatchReferenceParam, "http://localhost/subscriptions",
		subscription.Config{MaxSubscriptionDuration: time.Hour, MinSubscriptionDuration: time.Second, MaxNotifyErrors: 3, RoundTripSamples: 5})
}

func TestRuntime_CommitFansOutAndQueuesForPeriodicDrain(t *testing.T) {
	m := mdib.New(memory.New(), "urn:uuid:seq-a", nil)
	subs := newTestManager()
	aggregator := periodic.New(periodic.Config{Mode: periodic.ModeRetrievability, DefaultPeriod: time.Hour}, subs, nil, m.VersionGroup)

	r := New(m, subs, aggregator)

	mds := &mdib.Descriptor{Handle: "mds0", NodeType: mdib.NodeTypeMds}
	result, err := r.Commit(context.Background(), func(tx *transaction.Transaction) error {
		return tx.AddDescriptor(mds, nil)
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, mdib.Version(1), result.VersionGroup.MdibVersion)
	assert.NotEmpty(t, result.Reports)
}

func TestRuntime_CommitPropagatesTransactionError(t *testing.T) {
	m := mdib.New(memory.New(), "urn:uuid:seq-a", nil)
	subs := newTestManager()
	r := New(m, subs, nil)

	_, err := r.Commit(context.Background(), func(tx *transaction.Transaction) error {
		return tx.RemoveDescriptor("does-not-exist")
	})
	assert.Error(t, err)
}
