package verification_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withtally/compound-seatbelt-sub001/config"
	"github.com/withtally/compound-seatbelt-sub001/verification"
)

var testAddress = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")

func TestUnifiedExplorer(t *testing.T) {
	t.Parallel()

	t.Run("verified contract", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("chainid"))
			assert.Equal(t, "contract", r.URL.Query().Get("module"))
			assert.Equal(t, "getsourcecode", r.URL.Query().Get("action"))
			assert.Equal(t, testAddress.Hex(), r.URL.Query().Get("address"))
			assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

			fmt.Fprint(w, `{"status":"1","message":"OK","result":[{"SourceCode":"contract Uni {}","ABI":"[{\"type\":\"function\",\"name\":\"transfer\"}]","ContractName":"Uni"}]}`)
		}))
		defer srv.Close()

		exp := verification.NewUnifiedExplorer(srv.URL, "test-key", 1)

		verified, err := exp.IsContractVerified(t.Context(), testAddress)
		require.NoError(t, err)
		assert.True(t, verified)

		abi, err := exp.FetchContractABI(t.Context(), testAddress)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"type":"function","name":"transfer"}]`, string(abi))
	})

	t.Run("unverified contract has empty source and prose abi", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"status":"1","message":"OK","result":[{"SourceCode":"","ABI":"Contract source code not verified","ContractName":""}]}`)
		}))
		defer srv.Close()

		exp := verification.NewUnifiedExplorer(srv.URL, "test-key", 1)

		verified, err := exp.IsContractVerified(t.Context(), testAddress)
		require.NoError(t, err)
		assert.False(t, verified)

		abi, err := exp.FetchContractABI(t.Context(), testAddress)
		require.NoError(t, err)
		assert.Nil(t, abi)
	})

	t.Run("api error status is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
		}))
		defer srv.Close()

		exp := verification.NewUnifiedExplorer(srv.URL, "test-key", 1)

		_, err := exp.IsContractVerified(t.Context(), testAddress)
		require.ErrorContains(t, err, "NOTOK")
	})

	t.Run("http error is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		exp := verification.NewUnifiedExplorer(srv.URL, "test-key", 1)

		_, err := exp.IsContractVerified(t.Context(), testAddress)
		require.ErrorContains(t, err, "403")
	})
}

func TestRESTExplorer(t *testing.T) {
	t.Parallel()

	t.Run("partially verified counts as verified", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v2/smart-contracts/"+testAddress.Hex(), r.URL.Path)
			fmt.Fprint(w, `{"is_verified":false,"is_partially_verified":true,"abi":[{"type":"function","name":"mint"}]}`)
		}))
		defer srv.Close()

		exp := verification.NewRESTExplorer(srv.URL)

		verified, err := exp.IsContractVerified(t.Context(), testAddress)
		require.NoError(t, err)
		assert.True(t, verified)

		abi, err := exp.FetchContractABI(t.Context(), testAddress)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"type":"function","name":"mint"}]`, string(abi))
	})

	t.Run("unknown address is a clean negative", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		exp := verification.NewRESTExplorer(srv.URL)

		verified, err := exp.IsContractVerified(t.Context(), testAddress)
		require.NoError(t, err)
		assert.False(t, verified)

		abi, err := exp.FetchContractABI(t.Context(), testAddress)
		require.NoError(t, err)
		assert.Nil(t, abi)
	})

	t.Run("non-array abi degrades to nil", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"is_verified":true,"abi":{"bogus":true}}`)
		}))
		defer srv.Close()

		exp := verification.NewRESTExplorer(srv.URL)

		abi, err := exp.FetchContractABI(t.Context(), testAddress)
		require.NoError(t, err)
		assert.Nil(t, abi)
	})
}

func TestNewExplorer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.ExplorerConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "unified backend",
			cfg:      config.ExplorerConfig{Kind: config.ExplorerUnified, APIURL: "https://api.example.com/v2/api", APIKey: "k"},
			wantName: "unified-explorer (chain 1)",
		},
		{
			name:     "rest backend",
			cfg:      config.ExplorerConfig{Kind: config.ExplorerREST, APIURL: "https://explorer.example.com"},
			wantName: "rest-explorer (https://explorer.example.com)",
		},
		{
			name:    "unknown kind",
			cfg:     config.ExplorerConfig{Kind: "graphql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exp, err := verification.NewExplorer(tt.cfg, 1)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, exp.Name())
		})
	}
}
