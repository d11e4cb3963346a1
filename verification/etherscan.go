package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// UnifiedExplorer talks to a multi-chain explorer API (Etherscan v2 style):
// one API URL and key for every chain, with the chain id passed as a query
// parameter.
type UnifiedExplorer struct {
	apiURL     string
	apiKey     string
	chainID    uint64
	httpClient *http.Client
}

var _ Explorer = (*UnifiedExplorer)(nil)

// NewUnifiedExplorer returns a UnifiedExplorer scoped to one chain id.
func NewUnifiedExplorer(apiURL, apiKey string, chainID uint64) *UnifiedExplorer {
	return &UnifiedExplorer{
		apiURL:  apiURL,
		apiKey:  apiKey,
		chainID: chainID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *UnifiedExplorer) Name() string {
	return fmt.Sprintf("unified-explorer (chain %d)", e.chainID)
}

// unifiedResponse is the envelope every unified API action returns.
// Result's shape depends on the action, so it stays raw until the caller
// decodes it.
type unifiedResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type unifiedSource struct {
	SourceCode   string `json:"SourceCode"`
	ABI          string `json:"ABI"`
	ContractName string `json:"ContractName"`
}

// IsContractVerified reports verification as "the explorer returns non-empty
// source code for the address".
func (e *UnifiedExplorer) IsContractVerified(ctx context.Context, addr common.Address) (bool, error) {
	sources, err := e.getSourceCode(ctx, addr)
	if err != nil {
		return false, err
	}

	return len(sources) > 0 && sources[0].SourceCode != "", nil
}

// FetchContractABI returns the ABI the explorer holds for the address, or
// nil when the contract is not verified or the payload is not an ABI array.
func (e *UnifiedExplorer) FetchContractABI(ctx context.Context, addr common.Address) (json.RawMessage, error) {
	sources, err := e.getSourceCode(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 || sources[0].ABI == "" {
		return nil, nil
	}

	raw := json.RawMessage(sources[0].ABI)
	if !validABI(raw) {
		// Unverified contracts come back as a prose string here.
		return nil, nil
	}

	return raw, nil
}

func (e *UnifiedExplorer) getSourceCode(ctx context.Context, addr common.Address) ([]unifiedSource, error) {
	q := url.Values{}
	q.Set("chainid", strconv.FormatUint(e.chainID, 10))
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", addr.Hex())
	q.Set("apikey", e.apiKey)

	body, err := e.get(ctx, q)
	if err != nil {
		return nil, err
	}

	var envelope unifiedResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse explorer response: %w", err)
	}
	if envelope.Status != "1" {
		return nil, fmt.Errorf("explorer returned status %q: %s", envelope.Status, envelope.Message)
	}

	var sources []unifiedSource
	if err := json.Unmarshal(envelope.Result, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse explorer result: %w", err)
	}

	return sources, nil
}

func (e *UnifiedExplorer) get(ctx context.Context, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("explorer API returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
