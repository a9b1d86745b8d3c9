package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindValid(t *testing.T) {
	for _, k := range AllKinds() {
		assert.True(t, k.Valid(), "kind %s", k)
	}
	assert.False(t, Kind("disk").Valid())
	assert.False(t, Kind("").Valid())
}

func TestAllKindsOrderAndIsolation(t *testing.T) {
	kinds := AllKinds()
	assert.Equal(t, []Kind{KindHealth, KindUsers, KindServices, KindLogs, KindMetrics}, kinds)

	// Mutating the returned slice must not leak into later calls.
	kinds[0] = KindMetrics
	assert.Equal(t, KindHealth, AllKinds()[0])
}

func TestRequestWants(t *testing.T) {
	req := Request{Kinds: []Kind{KindLogs, KindMetrics}}
	assert.True(t, req.Wants(KindLogs))
	assert.False(t, req.Wants(KindHealth))
}

func TestResultEntryAndErrors(t *testing.T) {
	r := Result{Entries: []Entry{
		{Kind: KindHealth, Payload: "ok"},
		{Kind: KindUsers, Err: "api error (status 500): boom"},
	}}

	e, ok := r.Entry(KindUsers)
	assert.True(t, ok)
	assert.False(t, e.OK())

	_, ok = r.Entry(KindLogs)
	assert.False(t, ok)

	errs := r.Errors()
	assert.Equal(t, []string{"users: api error (status 500): boom"}, errs)
}

func TestDefaultLogQuery(t *testing.T) {
	q := DefaultLogQuery()
	assert.Equal(t, "1h", q.Timeframe)
	assert.Equal(t, 100, q.Limit)
}
