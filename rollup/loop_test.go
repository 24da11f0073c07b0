package rollup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zk-age-rollup/ledger"
	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/celestiaorg/zk-age-rollup/verifier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSeal = "valid seal"

var foreignProgramID = proof.ProgramID{9, 9, 9, 9, 9, 9, 9, 9}

// sealCapability accepts receipts carrying validSeal for the expected program.
type sealCapability struct{}

func (sealCapability) Verify(receipt *proof.Receipt, id proof.ProgramID) error {
	if id != verifier.EligibilityProgramID {
		return errors.New("no verifying key registered")
	}
	if !bytes.Equal(receipt.Seal, []byte(validSeal)) {
		return errors.New("pairing check failed")
	}
	return nil
}

func newReceiptVerifier() *verifier.ReceiptVerifier {
	return verifier.New(verifier.EligibilityProgramID, sealCapability{}, zerolog.Nop())
}

func payloadHex(t *testing.T, seal string, verdict bool, id proof.ProgramID) string {
	t.Helper()
	b, err := proof.NewReceipt([]byte(seal), verdict).Marshal()
	require.NoError(t, err)
	return proof.EncodePayload(b, id)
}

// countingVerifier records how often it was called.
type countingVerifier struct {
	calls int
}

func (c *countingVerifier) VerifyHex(string) (bool, error) {
	c.calls++
	return true, nil
}

type finishResult struct {
	req *Request
	err error
}

// scriptedCoordinator replays results and records every reported status.
type scriptedCoordinator struct {
	results  []finishResult
	statuses []Status
}

func (s *scriptedCoordinator) Finish(_ context.Context, status Status) (*Request, error) {
	s.statuses = append(s.statuses, status)
	if len(s.results) == 0 {
		return nil, errorsmod.Wrap(ErrTransport, "script exhausted")
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next.req, next.err
}

// memoryRecorder keeps appended records in order.
type memoryRecorder struct {
	records []*ledger.Record
}

func (m *memoryRecorder) Append(rec *ledger.Record) error {
	m.records = append(m.records, rec)
	return nil
}

type failingRecorder struct{}

func (failingRecorder) Append(*ledger.Record) error { return errors.New("disk full") }

func mustParse(t *testing.T, body string) *Request {
	t.Helper()
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)
	return req
}

func advanceBody(payload string) string {
	return `{"request_type":"advance_state","data":{"payload":"` + payload + `"}}`
}

func TestHandleAdvance(t *testing.T) {
	loop := NewLoop(&scriptedCoordinator{}, newReceiptVerifier(), zerolog.Nop())

	testCases := []struct {
		name   string
		body   string
		status Status
	}{
		{"valid proof", advanceBody(payloadHex(t, validSeal, true, verifier.EligibilityProgramID)), StatusAccept},
		{"false verdict", advanceBody(payloadHex(t, validSeal, false, verifier.EligibilityProgramID)), StatusReject},
		{"tampered seal", advanceBody(payloadHex(t, "forged", true, verifier.EligibilityProgramID)), StatusReject},
		{"claimed identity ignored when proof verifies", advanceBody(payloadHex(t, validSeal, true, foreignProgramID)), StatusAccept},
		{"foreign identity with invalid proof", advanceBody(payloadHex(t, "forged", true, foreignProgramID)), StatusReject},
		{"forty byte payload", advanceBody("0x" + repeatHex("ab", 8) + repeatHex("01", 32)), StatusReject},
		{"too small", advanceBody("0x" + repeatHex("00", 32)), StatusReject},
		{"bad hex", advanceBody("0xzz"), StatusReject},
		{"missing payload", `{"request_type":"advance_state","data":{}}`, StatusReject},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, loop.Handle(mustParse(t, tc.body)))
		})
	}
}

func TestHandleAdvanceRejectionReasons(t *testing.T) {
	recorder := &memoryRecorder{}
	loop := NewLoop(&scriptedCoordinator{}, newReceiptVerifier(), zerolog.Nop(), WithRecorder(recorder))

	testCases := []struct {
		payload string
		reason  string
	}{
		{payloadHex(t, "forged", true, foreignProgramID), "proof/5"},
		{payloadHex(t, "forged", true, verifier.EligibilityProgramID), "proof/6"},
		{payloadHex(t, validSeal, false, verifier.EligibilityProgramID), reasonNegativeVerdict},
	}
	for _, tc := range testCases {
		require.Equal(t, StatusReject, loop.Handle(mustParse(t, advanceBody(tc.payload))))
	}

	require.Len(t, recorder.records, len(testCases))
	for i, tc := range testCases {
		assert.Equal(t, tc.reason, recorder.records[i].Reason)
	}

	status := loop.Handle(mustParse(t, advanceBody(payloadHex(t, validSeal, true, foreignProgramID))))
	assert.Equal(t, StatusAccept, status)
	assert.Empty(t, recorder.records[len(recorder.records)-1].Reason)
}

func TestHandleInspect(t *testing.T) {
	v := &countingVerifier{}
	loop := NewLoop(&scriptedCoordinator{}, v, zerolog.Nop())

	assert.Equal(t, StatusAccept, loop.Handle(mustParse(t, `{"request_type":"inspect_state","data":{"payload":"anything"}}`)))
	assert.Equal(t, StatusReject, loop.Handle(mustParse(t, `{"request_type":"inspect_state","data":{}}`)))
	assert.Zero(t, v.calls)
}

func TestHandleUnknownType(t *testing.T) {
	v := &countingVerifier{}
	loop := NewLoop(&scriptedCoordinator{}, v, zerolog.Nop())

	status := loop.Handle(mustParse(t, `{"request_type":"reset_state","data":{"payload":"0x00"}}`))
	assert.Equal(t, StatusReject, status)
	assert.Zero(t, v.calls)
}

func TestStep(t *testing.T) {
	ctx := context.Background()

	t.Run("no pending request keeps status", func(t *testing.T) {
		loop := NewLoop(&scriptedCoordinator{results: []finishResult{{}}}, &countingVerifier{}, zerolog.Nop())
		status, err := loop.Step(ctx, StatusReject)
		require.NoError(t, err)
		assert.Equal(t, StatusReject, status)
	})

	t.Run("missing request_type rejects", func(t *testing.T) {
		_, parseErr := ParseRequest([]byte(`{"data":{}}`))
		coordinator := &scriptedCoordinator{results: []finishResult{{req: &Request{}, err: parseErr}}}
		loop := NewLoop(coordinator, &countingVerifier{}, zerolog.Nop())

		status, err := loop.Step(ctx, StatusAccept)
		require.NoError(t, err)
		assert.Equal(t, StatusReject, status)
	})

	t.Run("transport failure is fatal", func(t *testing.T) {
		loop := NewLoop(&scriptedCoordinator{}, &countingVerifier{}, zerolog.Nop())
		status, err := loop.Step(ctx, StatusAccept)
		require.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, StatusAccept, status)
	})

	t.Run("malformed response is fatal", func(t *testing.T) {
		_, parseErr := ParseRequest([]byte(`oops`))
		coordinator := &scriptedCoordinator{results: []finishResult{{err: parseErr}}}
		loop := NewLoop(coordinator, &countingVerifier{}, zerolog.Nop())

		_, err := loop.Step(ctx, StatusAccept)
		require.ErrorIs(t, err, ErrMalformedRequest)
	})
}

func TestRunThreadsStatus(t *testing.T) {
	coordinator := &scriptedCoordinator{results: []finishResult{
		{req: mustParse(t, advanceBody(payloadHex(t, validSeal, true, verifier.EligibilityProgramID)))},
		{},
		{req: mustParse(t, advanceBody(payloadHex(t, "forged", true, verifier.EligibilityProgramID)))},
		{req: mustParse(t, `{"request_type":"inspect_state","data":{"payload":"0x"}}`)},
	}}
	loop := NewLoop(coordinator, newReceiptVerifier(), zerolog.Nop())

	err := loop.Run(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, []Status{StatusAccept, StatusAccept, StatusAccept, StatusReject, StatusAccept}, coordinator.statuses)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coordinator := &scriptedCoordinator{}
	err := NewLoop(coordinator, &countingVerifier{}, zerolog.Nop()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, coordinator.statuses)
}

func TestLoopMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	loop := NewLoop(&scriptedCoordinator{}, newReceiptVerifier(), zerolog.Nop(), WithMetrics(metrics))

	loop.Handle(mustParse(t, advanceBody(payloadHex(t, validSeal, true, verifier.EligibilityProgramID))))
	loop.Handle(mustParse(t, advanceBody(payloadHex(t, validSeal, false, verifier.EligibilityProgramID))))
	loop.Handle(mustParse(t, advanceBody("0x00")))
	loop.Handle(mustParse(t, `{"request_type":"reset_state"}`))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("advance_state", "accept")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("advance_state", "reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("reset_state", "reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues(reasonNegativeVerdict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues("proof/3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues(reasonUnknownType)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Verification))
}

func TestLoopRecorderFailureKeepsVerdict(t *testing.T) {
	loop := NewLoop(&scriptedCoordinator{}, newReceiptVerifier(), zerolog.Nop(), WithRecorder(failingRecorder{}))
	status := loop.Handle(mustParse(t, advanceBody(payloadHex(t, validSeal, true, verifier.EligibilityProgramID))))
	assert.Equal(t, StatusAccept, status)
}

// coordinatorServer serves queued response bodies on /finish and records the
// reported statuses. Once the queue is drained it cancels the run.
type coordinatorServer struct {
	mu       sync.Mutex
	queue    []string
	statuses []Status
	cancel   context.CancelFunc
}

func (c *coordinatorServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var finish finishRequest
	_ = json.Unmarshal(body, &finish)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, finish.Status)

	if len(c.queue) == 0 {
		c.cancel()
		w.WriteHeader(http.StatusAccepted)
		return
	}
	next := c.queue[0]
	c.queue = c.queue[1:]
	if next == "" {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(next))
}

func TestRunAgainstCoordinator(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	coordinator := &coordinatorServer{
		cancel: cancel,
		queue: []string{
			`{"request_type":"advance_state","data":{"metadata":{"input_index":0},"payload":"` +
				payloadHex(t, validSeal, true, verifier.EligibilityProgramID) + `"}}`,
			"",
			`{"request_type":"advance_state","data":{"metadata":{"input_index":1},"payload":"0x` +
				repeatHex("ab", 8) + repeatHex("01", 32) + `"}}`,
			`{"request_type":"unknown"}`,
			`{"request_type":"inspect_state","data":{"payload":"0x"}}`,
		},
	}
	server := httptest.NewServer(coordinator)
	defer server.Close()

	loop := NewLoop(NewClient(server.URL, time.Second), newReceiptVerifier(), zerolog.Nop(), WithRecorder(store))
	err = loop.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	coordinator.mu.Lock()
	statuses := coordinator.statuses
	coordinator.mu.Unlock()
	assert.Equal(t, []Status{
		StatusAccept, // initial report
		StatusAccept, // valid proof
		StatusAccept, // no pending request
		StatusReject, // undecodable receipt
		StatusReject, // unknown type
		StatusAccept, // inspect
	}, statuses)

	sum, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sum.Accepted)
	assert.Equal(t, uint64(2), sum.Rejected)
	require.NotNil(t, sum.LastInputIndex)
	assert.Equal(t, uint64(1), *sum.LastInputIndex)

	rec, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "advance_state", rec.RequestType)
	assert.Equal(t, "reject", rec.Status)
	assert.Equal(t, "proof/4", rec.Reason)
}

func TestRunMalformedCoordinatorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_type":`))
	}))
	defer server.Close()

	err := NewLoop(NewClient(server.URL, time.Second), newReceiptVerifier(), zerolog.Nop()).Run(context.Background())
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func repeatHex(b string, n int) string {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteString(b)
	}
	return buf.String()
}
