package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RESTExplorer talks to a per-chain REST-style explorer (Blockscout style):
// each chain has its own base URL and no API key is required.
type RESTExplorer struct {
	apiURL     string
	httpClient *http.Client
}

var _ Explorer = (*RESTExplorer)(nil)

// NewRESTExplorer returns a RESTExplorer for the given chain-specific API
// URL.
func NewRESTExplorer(apiURL string) *RESTExplorer {
	return &RESTExplorer{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *RESTExplorer) Name() string {
	return fmt.Sprintf("rest-explorer (%s)", e.apiURL)
}

type restSmartContract struct {
	IsVerified          bool            `json:"is_verified"`
	IsPartiallyVerified bool            `json:"is_partially_verified"`
	ABI                 json.RawMessage `json:"abi"`
}

// IsContractVerified counts a partially verified contract as verified.
func (e *RESTExplorer) IsContractVerified(ctx context.Context, addr common.Address) (bool, error) {
	sc, found, err := e.getSmartContract(ctx, addr)
	if err != nil || !found {
		return false, err
	}

	return sc.IsVerified || sc.IsPartiallyVerified, nil
}

// FetchContractABI returns the ABI array the explorer holds, or nil when the
// contract is unknown, unverified, or the payload is not an ABI array.
func (e *RESTExplorer) FetchContractABI(ctx context.Context, addr common.Address) (json.RawMessage, error) {
	sc, found, err := e.getSmartContract(ctx, addr)
	if err != nil || !found {
		return nil, err
	}
	if len(sc.ABI) == 0 || !validABI(sc.ABI) {
		return nil, nil
	}

	return sc.ABI, nil
}

// getSmartContract fetches the smart-contract record. A 404 means the
// explorer does not know the address, which is a valid negative answer, not
// an error.
func (e *RESTExplorer) getSmartContract(ctx context.Context, addr common.Address) (restSmartContract, bool, error) {
	reqURL := fmt.Sprintf("%s/api/v2/smart-contracts/%s", e.apiURL, addr.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return restSmartContract{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return restSmartContract{}, false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return restSmartContract{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return restSmartContract{}, false, fmt.Errorf("explorer API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return restSmartContract{}, false, fmt.Errorf("failed to read response body: %w", err)
	}

	var sc restSmartContract
	if err := json.Unmarshal(body, &sc); err != nil {
		return restSmartContract{}, false, fmt.Errorf("failed to parse explorer response: %w", err)
	}

	return sc, true, nil
}
