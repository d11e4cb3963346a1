package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
)

// ExplorerFactory resolves the explorer backend for a chain id.
type ExplorerFactory func(chainID uint64) (Explorer, error)

// StatusCache is the tiered verification lookup: in-memory map, then one
// JSON file per key on disk, then the remote explorer. Disk hits are
// promoted into memory; remote answers are written to both tiers.
//
// A value written after exhausted retries is a degraded negative and is
// cached exactly like a confirmed negative: a transient explorer outage
// becomes a sticky "not verified" until Clear is called. That trade of
// accuracy for availability is deliberate.
//
// Map access is mutex-guarded, but there is intentionally no per-key
// in-flight deduplication: concurrent misses on the same key may each reach
// the remote and idempotently overwrite the same value.
type StatusCache struct {
	lggr        logger.Logger
	dir         string
	explorerFor ExplorerFactory

	mu       sync.Mutex
	verified map[string]bool
	abis     map[string]json.RawMessage
}

// verifiedEntry is the on-disk format of one verification lookup.
type verifiedEntry struct {
	Verified  bool  `json:"verified"`
	Timestamp int64 `json:"timestamp"`
}

// NewStatusCache creates a StatusCache persisting to dir.
func NewStatusCache(lggr logger.Logger, dir string, explorerFor ExplorerFactory) (*StatusCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}

	return &StatusCache{
		lggr:        lggr,
		dir:         dir,
		explorerFor: explorerFor,
		verified:    make(map[string]bool),
		abis:        make(map[string]json.RawMessage),
	}, nil
}

func cacheKey(chainID uint64, addr common.Address) string {
	return fmt.Sprintf("%d-%s", chainID, addr.Hex())
}

func (c *StatusCache) verifiedPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *StatusCache) abiPath(key string) string {
	return filepath.Join(c.dir, "abi-"+key+".json")
}

// IsVerified reports whether the contract at addr on chainID is verified on
// its explorer. Remote failures degrade to false after retries; the result,
// degraded or not, is cached until Clear.
func (c *StatusCache) IsVerified(ctx context.Context, chainID uint64, addr common.Address) bool {
	key := cacheKey(chainID, addr)

	c.mu.Lock()
	v, ok := c.verified[key]
	c.mu.Unlock()
	if ok {
		return v
	}

	if entry, ok := c.readVerifiedFile(key); ok {
		c.mu.Lock()
		c.verified[key] = entry.Verified
		c.mu.Unlock()

		return entry.Verified
	}

	verified := c.fetchVerified(ctx, chainID, addr)

	c.mu.Lock()
	c.verified[key] = verified
	c.mu.Unlock()
	c.writeVerifiedFile(key, verified)

	return verified
}

func (c *StatusCache) fetchVerified(ctx context.Context, chainID uint64, addr common.Address) bool {
	explorer, err := c.explorerFor(chainID)
	if err != nil {
		c.lggr.Errorw("No explorer for chain, treating contract as unverified",
			"chainID", chainID, "address", addr.Hex(), "error", err)

		return false
	}

	verified, err := doWithRetry(ctx, c.lggr, "isContractVerified", func(ctx context.Context) (bool, error) {
		return explorer.IsContractVerified(ctx, addr)
	})
	if err != nil {
		c.lggr.Warnw("Verification lookup failed after retries, caching negative result",
			"explorer", explorer.Name(), "address", addr.Hex(), "error", err)

		return false
	}

	return verified
}

// FetchABI returns the ABI for the contract at addr on chainID, or nil when
// none is available. The same tiering and degradation rules as IsVerified
// apply; a nil ABI is cached like any other answer.
func (c *StatusCache) FetchABI(ctx context.Context, chainID uint64, addr common.Address) json.RawMessage {
	key := cacheKey(chainID, addr)

	c.mu.Lock()
	raw, ok := c.abis[key]
	c.mu.Unlock()
	if ok {
		return raw
	}

	if raw, ok := c.readABIFile(key); ok {
		c.mu.Lock()
		c.abis[key] = raw
		c.mu.Unlock()

		return raw
	}

	raw = c.fetchABI(ctx, chainID, addr)

	c.mu.Lock()
	c.abis[key] = raw
	c.mu.Unlock()
	c.writeABIFile(key, raw)

	return raw
}

func (c *StatusCache) fetchABI(ctx context.Context, chainID uint64, addr common.Address) json.RawMessage {
	explorer, err := c.explorerFor(chainID)
	if err != nil {
		c.lggr.Errorw("No explorer for chain, treating contract as having no ABI",
			"chainID", chainID, "address", addr.Hex(), "error", err)

		return nil
	}

	raw, err := doWithRetry(ctx, c.lggr, "fetchContractABI", func(ctx context.Context) (json.RawMessage, error) {
		return explorer.FetchContractABI(ctx, addr)
	})
	if err != nil {
		c.lggr.Warnw("ABI lookup failed after retries, caching negative result",
			"explorer", explorer.Name(), "address", addr.Hex(), "error", err)

		return nil
	}
	if raw != nil && !validABI(raw) {
		// Malformed ABI payloads are a data-integrity problem on the
		// explorer side; treat as "no ABI" rather than failing the caller.
		c.lggr.Errorw("Explorer returned malformed ABI JSON, ignoring it",
			"explorer", explorer.Name(), "address", addr.Hex())

		return nil
	}

	return raw
}

// Clear empties both cache tiers. Intended for test isolation and for
// operators to force re-verification after an explorer outage.
func (c *StatusCache) Clear() error {
	c.mu.Lock()
	c.verified = make(map[string]bool)
	c.abis = make(map[string]json.RawMessage)
	c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to clear cache dir %s: %w", c.dir, err)
	}

	return os.MkdirAll(c.dir, 0o755)
}

func (c *StatusCache) readVerifiedFile(key string) (verifiedEntry, bool) {
	data, err := os.ReadFile(c.verifiedPath(key))
	if err != nil {
		return verifiedEntry{}, false
	}

	var entry verifiedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.lggr.Warnw("Discarding unreadable cache file", "path", c.verifiedPath(key), "error", err)
		return verifiedEntry{}, false
	}

	return entry, true
}

func (c *StatusCache) writeVerifiedFile(key string, verified bool) {
	entry := verifiedEntry{Verified: verified, Timestamp: time.Now().Unix()}
	data, err := json.Marshal(entry)
	if err != nil {
		c.lggr.Errorw("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(c.verifiedPath(key), data, 0o644); err != nil {
		c.lggr.Warnw("Failed to persist cache entry", "path", c.verifiedPath(key), "error", err)
	}
}

func (c *StatusCache) readABIFile(key string) (json.RawMessage, bool) {
	data, err := os.ReadFile(c.abiPath(key))
	if err != nil {
		return nil, false
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		c.lggr.Warnw("Discarding unreadable ABI cache file", "path", c.abiPath(key), "error", err)
		return nil, false
	}
	if string(raw) == "null" {
		return nil, true
	}

	return raw, true
}

func (c *StatusCache) writeABIFile(key string, raw json.RawMessage) {
	data, err := json.Marshal(raw)
	if err != nil {
		c.lggr.Errorw("Failed to encode ABI cache entry", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(c.abiPath(key), data, 0o644); err != nil {
		c.lggr.Warnw("Failed to persist ABI cache entry", "path", c.abiPath(key), "error", err)
	}
}
