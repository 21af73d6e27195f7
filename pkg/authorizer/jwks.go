package authorizer

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// keyCache fetches the authority's signing keys through OIDC discovery and
// caches them for the configured TTL.
type keyCache struct {
	authority string
	ttl       time.Duration
	client    *http.Client

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

type oidcMetadata struct {
	JWKSURI string `json:"jwks_uri"`
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newKeyCache(cfg Config) (*keyCache, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.CABundlePath != "" {
		pem, err := os.ReadFile(cfg.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("authorizer: read ca bundle: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("authorizer: ca bundle contains no certificates")
		}
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}
	}

	return &keyCache{
		authority: strings.TrimRight(cfg.Authority, "/"),
		ttl:       cfg.JWKSCacheTTL,
		client:    client,
	}, nil
}

// signingKey returns the RSA public key for kid, refreshing the JWKS when
// the cache is stale or the kid is unknown.
func (c *keyCache) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("authorizer: token has no kid header")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok && time.Since(c.fetched) < c.ttl {
		return key, nil
	}
	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}
	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("authorizer: no signing key for kid %q", kid)
	}
	return key, nil
}

func (c *keyCache) refreshLocked(ctx context.Context) error {
	var metadata oidcMetadata
	if err := c.getJSON(ctx, c.authority+"/.well-known/openid-configuration", &metadata); err != nil {
		return fmt.Errorf("authorizer: fetch oidc metadata: %w", err)
	}
	if metadata.JWKSURI == "" {
		return errors.New("authorizer: oidc metadata has no jwks_uri")
	}

	var doc jwksDocument
	if err := c.getJSON(ctx, metadata.JWKSURI, &doc); err != nil {
		return fmt.Errorf("authorizer: fetch jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		key, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}
	if len(keys) == 0 {
		return errors.New("authorizer: jwks contains no usable RSA keys")
	}

	c.keys = keys
	c.fetched = time.Now()
	return nil
}

func (c *keyCache) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (k jwksKey) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, errors.New("authorizer: jwk has zero exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
