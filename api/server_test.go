package api_test

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/api"
	"github.com/xraph/dailymood/store/memory"
	"github.com/xraph/dailymood/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type account struct {
	key  *ecdsa.PrivateKey
	addr types.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type harness struct {
	t       *testing.T
	handler http.Handler
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	l := dailymood.New(memory.New(),
		dailymood.WithLogger(slog.New(slog.DiscardHandler)),
		dailymood.WithClock(func() time.Time { return now }),
	)
	srv := api.New(l,
		api.WithLogger(slog.New(slog.DiscardHandler)),
		api.WithClock(func() time.Time { return now }),
		api.WithSkew(time.Minute),
	)
	return &harness{t: t, handler: srv.Handler(), now: now}
}

type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *api.ErrorBody  `json:"error"`
}

func (h *harness) do(method, path string, body any, signer *account) (int, reply) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if signer != nil {
		require.NoError(h.t, api.SignRequest(req, signer.key, h.now))
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	var r reply
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	return w.Code, r
}

func (h *harness) deploy(owner account, allowed ...string) string {
	h.t.Helper()
	body := map[string]any{}
	if allowed != nil {
		body["allowed"] = allowed
	}
	code, r := h.do(http.MethodPost, "/contracts", body, &owner)
	require.Equal(h.t, http.StatusCreated, code, r.Error)

	var view api.ContractView
	require.NoError(h.t, json.Unmarshal(r.Data, &view))
	assert.Equal(h.t, owner.addr, view.Owner)
	return "/contracts/" + view.ID
}

func TestDeployDefaultsToWildcard(t *testing.T) {
	h := newHarness(t)
	owner, stranger := newAccount(t), newAccount(t)
	base := h.deploy(owner)

	code, r := h.do(http.MethodGet, base+"/allowed/"+stranger.addr.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"address":"`+strings.ToLower(stranger.addr.Hex())+`","allowed":true}`, strings.ToLower(string(r.Data)))

	code, _ = h.do(http.MethodPost, base+"/moods", map[string]string{"mood": "hello"}, &stranger)
	assert.Equal(t, http.StatusCreated, code)
}

func TestMoodLifecycle(t *testing.T) {
	h := newHarness(t)
	owner, alice := newAccount(t), newAccount(t)
	base := h.deploy(owner, owner.addr.Hex(), alice.addr.Hex())

	for _, text := range []string{"happy", "sad", "meh"} {
		code, r := h.do(http.MethodPost, base+"/moods", map[string]string{"mood": text}, &alice)
		require.Equal(t, http.StatusCreated, code, r.Error)
	}

	code, r := h.do(http.MethodGet, base+"/moods/"+alice.addr.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(r.Data), `"length":3`)

	code, _ = h.do(http.MethodDelete, base+"/moods/"+alice.addr.Hex()+"/0", nil, &owner)
	require.Equal(t, http.StatusOK, code)

	code, r = h.do(http.MethodGet, base+"/moods/"+alice.addr.Hex()+"/0", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var view api.MoodView
	require.NoError(t, json.Unmarshal(r.Data, &view))
	assert.Equal(t, "sad", view.Mood)
	assert.Equal(t, h.now.Unix(), view.Timestamp)

	code, r = h.do(http.MethodGet, base+"/moods/"+alice.addr.Hex()+"/2", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.CodeIndexOutOfBounds, r.Error.Code)

	code, _ = h.do(http.MethodDelete, base+"/moods/"+alice.addr.Hex(), nil, &owner)
	require.Equal(t, http.StatusOK, code)
	_, r = h.do(http.MethodGet, base+"/moods/"+alice.addr.Hex(), nil, nil)
	assert.Contains(t, string(r.Data), `"length":0`)
}

func TestUpdateOwnLog(t *testing.T) {
	h := newHarness(t)
	owner, alice := newAccount(t), newAccount(t)
	base := h.deploy(owner, owner.addr.Hex(), alice.addr.Hex())

	code, _ := h.do(http.MethodPost, base+"/moods", map[string]string{"mood": "tired"}, &owner)
	require.Equal(t, http.StatusCreated, code)

	code, r := h.do(http.MethodPut, base+"/moods/"+owner.addr.Hex()+"/0", map[string]string{"mood": "rested"}, &owner)
	require.Equal(t, http.StatusOK, code, r.Error)
	assert.Contains(t, string(r.Data), `"mood":"rested"`)

	code, r = h.do(http.MethodPut, base+"/moods/"+alice.addr.Hex()+"/0", map[string]string{"mood": "x"}, &alice)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, api.CodePermissionDenied, r.Error.Code)

	code, r = h.do(http.MethodPut, base+"/moods/"+alice.addr.Hex()+"/0", map[string]string{"mood": "x"}, &owner)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.CodeInvalidArgument, r.Error.Code)

	// A non-owner naming someone else's log is refused before the path is
	// validated against the caller.
	code, r = h.do(http.MethodPut, base+"/moods/"+owner.addr.Hex()+"/0", map[string]string{"mood": "hijack"}, &alice)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, api.CodePermissionDenied, r.Error.Code)

	_, r = h.do(http.MethodGet, base+"/moods/"+owner.addr.Hex()+"/0", nil, nil)
	assert.Contains(t, string(r.Data), `"mood":"rested"`)
}

func TestAuthorizationFailures(t *testing.T) {
	h := newHarness(t)
	owner, alice, mallory := newAccount(t), newAccount(t), newAccount(t)
	base := h.deploy(owner, alice.addr.Hex())

	code, r := h.do(http.MethodPost, base+"/moods", map[string]string{"mood": "hi"}, &mallory)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, api.CodePermissionDenied, r.Error.Code)

	code, _ = h.do(http.MethodPost, base+"/allowed", map[string]string{"address": mallory.addr.Hex()}, &alice)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(http.MethodPost, base+"/allowed", map[string]string{"address": mallory.addr.Hex()}, &owner)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = h.do(http.MethodPut, base+"/owner", map[string]string{"new_owner": types.ZeroAddress.Hex()}, &owner)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodPut, base+"/owner", map[string]string{"new_owner": alice.addr.Hex()}, &owner)
	require.Equal(t, http.StatusOK, code)
	_, r = h.do(http.MethodGet, base+"/owner", nil, nil)
	assert.Contains(t, strings.ToLower(string(r.Data)), strings.ToLower(alice.addr.Hex()))
}

func TestSignatureChecks(t *testing.T) {
	h := newHarness(t)
	owner, other := newAccount(t), newAccount(t)
	base := h.deploy(owner)

	code, r := h.do(http.MethodPost, base+"/moods", map[string]string{"mood": "hi"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, api.CodeUnauthenticated, r.Error.Code)

	t.Run("stale", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/moods", strings.NewReader(`{"mood":"old"}`))
		require.NoError(t, api.SignRequest(req, owner.key, h.now.Add(-2*time.Minute)))
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("forged address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/moods", strings.NewReader(`{"mood":"fake"}`))
		require.NoError(t, api.SignRequest(req, other.key, h.now))
		req.Header.Set(api.HeaderAddress, owner.addr.Hex())
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("signature bound to body", func(t *testing.T) {
		bob, mallory := newAccount(t), newAccount(t)
		signed := httptest.NewRequest(http.MethodPost, base+"/allowed",
			strings.NewReader(`{"address":"`+bob.addr.Hex()+`"}`))
		require.NoError(t, api.SignRequest(signed, owner.key, h.now))

		req := httptest.NewRequest(http.MethodPost, base+"/allowed",
			strings.NewReader(`{"address":"`+mallory.addr.Hex()+`"}`))
		req.Header = signed.Header.Clone()
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		_, r := h.do(http.MethodGet, base+"/allowed", nil, nil)
		assert.NotContains(t, strings.ToLower(string(r.Data)), strings.ToLower(mallory.addr.Hex()))

		// The untouched request still goes through.
		w = httptest.NewRecorder()
		h.handler.ServeHTTP(w, signed)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/moods",
			strings.NewReader(`{"mood":"`+strings.Repeat("x", api.MaxBodyBytes)+`"}`))
		req.Header.Set(api.HeaderAddress, owner.addr.Hex())
		req.Header.Set(api.HeaderTimestamp, strconv.FormatInt(h.now.Unix(), 10))
		req.Header.Set(api.HeaderSignature, "0x"+strings.Repeat("00", 65))
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("signature bound to path", func(t *testing.T) {
		signed := httptest.NewRequest(http.MethodDelete, base+"/moods/"+other.addr.Hex(), nil)
		require.NoError(t, api.SignRequest(signed, owner.key, h.now))

		req := httptest.NewRequest(http.MethodPost, base+"/moods", strings.NewReader(`{"mood":"replayed"}`))
		req.Header = signed.Header.Clone()
		w := httptest.NewRecorder()
		h.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestNotFoundAndBadInput(t *testing.T) {
	h := newHarness(t)
	owner := newAccount(t)
	base := h.deploy(owner)

	code, r := h.do(http.MethodGet, "/contracts/dmc_01h455vb4pex5vsknk084sn02q", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, api.CodeNotFound, r.Error.Code)

	code, _ = h.do(http.MethodGet, "/contracts/not-an-id", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, base+"/moods/0x1234", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, base+"/moods/"+owner.addr.Hex()+"/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, r = h.do(http.MethodPost, "/contracts", map[string]any{"allowed": []string{"nope"}}, &owner)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.CodeInvalidArgument, r.Error.Code)
}
