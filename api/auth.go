package api

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"github.com/xraph/dailymood/types"
)

// Request signing headers.
const (
	HeaderAddress   = "X-Dailymood-Address"
	HeaderTimestamp = "X-Dailymood-Timestamp"
	HeaderSignature = "X-Dailymood-Signature"
)

// DefaultSkew is the accepted distance between a signed timestamp and the
// server clock.
const DefaultSkew = 5 * time.Minute

// MaxBodyBytes caps the request body read for signature verification.
const MaxBodyBytes = 1 << 20

const callerKey = "dailymood.caller"

// Authentication failures. All map to 401.
var (
	ErrMissingSignature = errors.New("api: missing signature headers")
	ErrBadTimestamp     = errors.New("api: invalid signature timestamp")
	ErrStaleSignature   = errors.New("api: signature timestamp outside window")
	ErrBadSignature     = errors.New("api: invalid signature")
	ErrSignerMismatch   = errors.New("api: signature does not match address")
)

// ErrBodyTooLarge rejects bodies over MaxBodyBytes with 413.
var ErrBodyTooLarge = errors.New("api: request body too large")

// SigningPayload is the message a caller signs to authorize one request.
// The body is covered through its keccak256 hash, so an empty body signs
// the hash of no bytes.
func SigningPayload(method, path string, ts int64, body []byte) string {
	return fmt.Sprintf("dailymood:%s:%s:%d:%s", method, path, ts, crypto.Keccak256Hash(body).Hex())
}

// SignRequest stamps req with the headers for key, signing the EIP-191
// personal message of SigningPayload at now. The body is read and put back.
func SignRequest(req *http.Request, key *ecdsa.PrivateKey, now time.Time) error {
	body, err := readBody(req)
	if err != nil {
		return fmt.Errorf("api: sign request: %w", err)
	}

	ts := now.Unix()
	hash := accounts.TextHash([]byte(SigningPayload(req.Method, req.URL.Path, ts, body)))
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return fmt.Errorf("api: sign request: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	req.Header.Set(HeaderAddress, crypto.PubkeyToAddress(key.PublicKey).Hex())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, hexutil.Encode(sig))
	return nil
}

// verifier recovers the calling account from signed request headers.
type verifier struct {
	skew  time.Duration
	clock func() time.Time
}

func (v verifier) caller(r *http.Request) (types.Address, error) {
	addrHex := r.Header.Get(HeaderAddress)
	tsRaw := r.Header.Get(HeaderTimestamp)
	sigHex := r.Header.Get(HeaderSignature)
	if addrHex == "" || tsRaw == "" || sigHex == "" {
		return types.ZeroAddress, ErrMissingSignature
	}

	claimed, err := types.ParseAddress(addrHex)
	if err != nil {
		return types.ZeroAddress, err
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return types.ZeroAddress, ErrBadTimestamp
	}
	if d := v.clock().Sub(time.Unix(ts, 0)); d > v.skew || d < -v.skew {
		return types.ZeroAddress, ErrStaleSignature
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return types.ZeroAddress, ErrBadSignature
	}
	// Wallets send V as 27/28.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	body, err := readBody(r)
	if err != nil {
		return types.ZeroAddress, err
	}

	hash := accounts.TextHash([]byte(SigningPayload(r.Method, r.URL.Path, ts, body)))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return types.ZeroAddress, ErrBadSignature
	}
	if signer := crypto.PubkeyToAddress(*pub); signer != claimed {
		return types.ZeroAddress, ErrSignerMismatch
	}
	return claimed, nil
}

// readBody drains r.Body and replaces it with a reader over the same bytes.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(b) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b, nil
}

// requireSignature rejects requests without a valid signature and stores the
// recovered caller on the context.
func (s *Server) requireSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := s.verifier.caller(c.Request)
		if err != nil {
			s.logger.Debug("request signature rejected",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"error", err,
			)
			if errors.Is(err, ErrBodyTooLarge) {
				abort(c, http.StatusRequestEntityTooLarge, CodeInvalidArgument, err)
				return
			}
			abort(c, http.StatusUnauthorized, CodeUnauthenticated, err)
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) types.Address {
	v, _ := c.Get(callerKey)
	addr, _ := v.(types.Address)
	return addr
}
