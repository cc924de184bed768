package signing

import (
	"context"
	"time"

	"github.com/yanun0323/errors"

	"main/pkg/exception"
)

// KeyProvider is the capability the service uses to reach key material by
// id. Exactly one provider is active per process; callers never touch the
// backend directly. Implementations must distinguish not-found, unavailable
// and permission failures via the pkg/exception sentinels.
type KeyProvider interface {
	GetKey(ctx context.Context, id string) (Key, error)
	StoreKey(ctx context.Context, id string, key Key) error
	DeleteKey(ctx context.Context, id string) error
}

// Recorder observes completed signing operations, fire and forget.
// Implementations must not block and must not retain payload; digest it
// when a trail is needed.
type Recorder interface {
	Record(op string, keyID string, payload []byte, ok bool, elapsed time.Duration)
}

// Service produces and checks deterministic message authentication codes.
// It is stateless and safe for concurrent use; the only mutable state is
// the key value the caller passes in.
type Service struct {
	scheme   scheme
	provider KeyProvider
	recorder Recorder
}

// New creates a signing service. The provider may be nil when only the
// seed-based operations are used.
func New(provider KeyProvider) *Service {
	return &Service{
		scheme:   hmacScheme{},
		provider: provider,
	}
}

// SetRecorder attaches an operation observer. Call before the service is
// shared across goroutines.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Service) record(op, keyID string, payload []byte, ok bool, started time.Time) {
	if s.recorder != nil {
		s.recorder.Record(op, keyID, payload, ok, time.Since(started))
	}
}

// Keygen derives a key from a seed. The same seed always yields the same
// key. An error here is an unrecoverable primitive failure and should be
// treated as fatal configuration, not a normal-path error.
func (s *Service) Keygen(seed uint64) (Key, error) {
	started := time.Now()
	key, err := s.scheme.DeriveKey(seed)
	s.record("keygen", "", nil, err == nil, started)
	return key, err
}

// Sign authenticates payload with key. The payload may be empty or
// arbitrarily large; nothing is truncated. The key must be KeySize bytes.
func (s *Service) Sign(key []byte, payload []byte) (Signature, error) {
	started := time.Now()
	k, err := KeyFromBytes(key)
	if err != nil {
		s.record("sign", "", payload, false, started)
		return Signature{}, err
	}
	sig := s.scheme.Authenticate(k, payload)
	k.Zero()
	s.record("sign", "", payload, true, started)
	return sig, nil
}

// SignKey authenticates payload with an already-typed key.
func (s *Service) SignKey(key Key, payload []byte) Signature {
	return s.scheme.Authenticate(key, payload)
}

// Verify reports whether sig authenticates payload under key. Malformed
// input yields false, never an error, so callers can treat verification as
// a pure boolean decision. The comparison is constant time.
func (s *Service) Verify(key []byte, payload []byte, sig []byte) bool {
	started := time.Now()
	ok := s.verifyBytes(key, payload, sig)
	s.record("verify", "", payload, ok, started)
	return ok
}

func (s *Service) verifyBytes(key []byte, payload []byte, sig []byte) bool {
	k, err := KeyFromBytes(key)
	if err != nil {
		return false
	}
	defer k.Zero()

	tag, err := SignatureFromBytes(sig)
	if err != nil {
		return false
	}
	return s.scheme.Verify(k, payload, tag)
}

// VerifyKey reports whether sig authenticates payload under a typed key.
func (s *Service) VerifyKey(key Key, payload []byte, sig Signature) bool {
	return s.scheme.Verify(key, payload, sig)
}

// SignAs fetches the key with the given id from the provider and signs
// payload with it. Provider failures propagate with their sentinel kind;
// the service never retries them.
func (s *Service) SignAs(ctx context.Context, keyID string, payload []byte) (Signature, error) {
	started := time.Now()
	key, err := s.fetch(ctx, keyID)
	if err != nil {
		s.record("sign", keyID, payload, false, started)
		return Signature{}, err
	}
	sig := s.scheme.Authenticate(key, payload)
	key.Zero()
	s.record("sign", keyID, payload, true, started)
	return sig, nil
}

// VerifyAs verifies payload against sig using the key with the given id.
// The boolean is only meaningful when the returned error is nil.
func (s *Service) VerifyAs(ctx context.Context, keyID string, payload []byte, sig Signature) (bool, error) {
	started := time.Now()
	key, err := s.fetch(ctx, keyID)
	if err != nil {
		s.record("verify", keyID, payload, false, started)
		return false, err
	}
	ok := s.scheme.Verify(key, payload, sig)
	key.Zero()
	s.record("verify", keyID, payload, ok, started)
	return ok, nil
}

func (s *Service) fetch(ctx context.Context, keyID string) (Key, error) {
	if s.provider == nil {
		return Key{}, errors.Wrap(exception.ErrProviderUnavailable, "no key provider configured")
	}
	return s.provider.GetKey(ctx, keyID)
}
