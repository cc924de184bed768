package keyring

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/hashicorp/vault/api"
	werrors "github.com/yanun0323/errors"

	"main/internal/signing"
	"main/pkg/exception"
)

// VaultConfig describes the Vault KV v2 backend.
type VaultConfig struct {
	Address   string `json:"address"`
	Token     string `json:"token"`
	MountPath string `json:"mountPath"`
}

// Vault is the KMS-backed key provider, storing key material in a Vault
// KV v2 mount. It stands in for the future HSM backend behind the same
// interface, so signing callers never branch on backend type.
type Vault struct {
	kv *api.KVv2
}

var _ signing.KeyProvider = (*Vault)(nil)

// NewVault creates a provider against the configured Vault mount.
func NewVault(cfg VaultConfig) (*Vault, error) {
	if cfg.Address == "" {
		return nil, exception.ErrInvalidArgument
	}
	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}

	clientConf := api.DefaultConfig()
	clientConf.Address = cfg.Address
	client, err := api.NewClient(clientConf)
	if err != nil {
		return nil, werrors.Wrap(err, "create vault client")
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &Vault{kv: client.KVv2(mount)}, nil
}

// GetKey fetches the key with the given id from the mount.
func (v *Vault) GetKey(ctx context.Context, id string) (signing.Key, error) {
	if id == "" {
		return signing.Key{}, exception.ErrEmptyKeyID
	}

	secret, err := v.kv.Get(ctx, id)
	if err != nil {
		return signing.Key{}, mapVaultErr(err)
	}

	encoded, ok := secret.Data["key"].(string)
	if !ok {
		return signing.Key{}, exception.ErrKeyNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return signing.Key{}, exception.ErrInvalidLength
	}

	key, err := signing.KeyFromBytes(raw)
	if err != nil {
		return signing.Key{}, err
	}
	return key, nil
}

// StoreKey writes key material under id. Vault owns versioning and the
// serialization of concurrent writers.
func (v *Vault) StoreKey(ctx context.Context, id string, key signing.Key) error {
	if id == "" {
		return exception.ErrEmptyKeyID
	}

	data := map[string]interface{}{
		"key": base64.StdEncoding.EncodeToString(key[:]),
	}
	key.Zero()

	if _, err := v.kv.Put(ctx, id, data); err != nil {
		return mapVaultErr(err)
	}
	return nil
}

// DeleteKey removes the latest version of the key under id.
func (v *Vault) DeleteKey(ctx context.Context, id string) error {
	if id == "" {
		return exception.ErrEmptyKeyID
	}
	if err := v.kv.Delete(ctx, id); err != nil {
		return mapVaultErr(err)
	}
	return nil
}

// mapVaultErr folds Vault transport failures onto the provider taxonomy so
// callers can tell "key absent" from "backend unreachable" without knowing
// the backend is Vault.
func mapVaultErr(err error) error {
	if errors.Is(err, api.ErrSecretNotFound) {
		return exception.ErrKeyNotFound
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return exception.ErrKeyNotFound
		case http.StatusForbidden:
			return exception.ErrPermissionDenied
		}
	}
	return werrors.Wrap(exception.ErrProviderUnavailable, err.Error())
}
