package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mynextid/zk-attest/keystore"
	"github.com/mynextid/zk-attest/schnorr"
	"github.com/mynextid/zk-attest/server/api"
	"github.com/stretchr/testify/require"
)

const attestBody = `{"creditScore":720,"monthlyIncome":2500,"monthsAsCustomer":24,"userPubKeyHash":"12345678901234567890"}`

func testConfig() *ServeConfig {
	return &ServeConfig{
		Host:            "127.0.0.1",
		Port:            8080,
		ProviderID:      1,
		ChallengeHash:   "mimc",
		MaxRequestSize:  1 << 20,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		EnableCORS:      true,
		CorsOrigins:     []string{"*"},
		LogLevel:        "debug",
	}
}

func newTestRouter(t *testing.T, sk *big.Int) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := NewLogger(&logs, "debug", "json")

	provider, err := api.NewProvider(1, sk, schnorr.NewEngine())
	require.NoError(t, err)
	return setupRouter(api.NewServer(provider, logger), testConfig(), logger), &logs
}

func request(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestRouterScenarios(t *testing.T) {
	sk := big.NewInt(8675309)
	h, logs := newTestRouter(t, sk)

	t.Run("attest", func(t *testing.T) {
		code, body := request(t, h, http.MethodPost, "/attest", attestBody)
		require.Equal(t, http.StatusOK, code)

		sig := body["signature"].(map[string]any)
		ann := sig["announcement"].(map[string]any)
		require.NotEmpty(t, ann["x"])
		require.NotEmpty(t, ann["y"])
		require.NotEmpty(t, sig["response"])
		require.Equal(t, "720", body["message"].(map[string]any)["creditScore"])
	})

	t.Run("attest missing fields", func(t *testing.T) {
		code, body := request(t, h, http.MethodPost, "/attest", `{"creditScore":720}`)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body["error"], "Missing required fields")
	})

	t.Run("health", func(t *testing.T) {
		code, body := request(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, map[string]any{"status": "ok", "providerId": float64(1)}, body)
	})

	t.Run("provider info", func(t *testing.T) {
		code, body := request(t, h, http.MethodGet, "/provider-info", "")
		require.Equal(t, http.StatusOK, code)

		pk := schnorr.DerivePublicKey(sk)
		x, y := schnorr.PointToDecimal(&pk)
		require.Equal(t, float64(1), body["providerId"])
		require.Equal(t, map[string]any{"x": x, "y": y}, body["publicKey"])
	})

	require.Contains(t, logs.String(), `"path":"/attest"`)
	require.NotContains(t, logs.String(), sk.String())
}

func TestRouterRejectsWrongMethod(t *testing.T) {
	h, _ := newTestRouter(t, big.NewInt(5))

	req := httptest.NewRequest(http.MethodGet, "/attest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouterConcurrentAttest(t *testing.T) {
	h, _ := newTestRouter(t, big.NewInt(271828))

	const n = 16
	responses := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/attest", strings.NewReader(attestBody))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				responses[i] = rec.Body.String()
			}
		}(i)
	}
	wg.Wait()

	// every request succeeded with an independent signature
	seen := map[string]bool{}
	for _, r := range responses {
		require.NotEmpty(t, r)
		require.False(t, seen[r])
		seen[r] = true
	}
}

func TestValidateServeConfig(t *testing.T) {
	require.NoError(t, validateServeConfig(testConfig()))

	cfg := testConfig()
	cfg.Port = 0
	require.ErrorContains(t, validateServeConfig(cfg), "invalid port")

	cfg = testConfig()
	cfg.ProviderID = -1
	require.ErrorContains(t, validateServeConfig(cfg), "provider id")

	cfg = testConfig()
	cfg.ChallengeHash = "sha1"
	require.ErrorContains(t, validateServeConfig(cfg), "unknown challenge hash")

	cfg = testConfig()
	cfg.EnableTLS = true
	require.ErrorContains(t, validateServeConfig(cfg), "TLS enabled")

	cfg = testConfig()
	cfg.KeyFile = filepath.Join(t.TempDir(), "missing.key")
	require.ErrorContains(t, validateServeConfig(cfg), "key file not found")
}

func TestLoadProvider(t *testing.T) {
	logger := NewLogger(io.Discard, "info", "text")

	t.Run("secret key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "123456789"
		p, err := loadProvider(cfg, logger)
		require.NoError(t, err)
		want := schnorr.DerivePublicKey(big.NewInt(123456789))
		got := p.PublicKey()
		require.True(t, want.Equal(&got))
	})

	t.Run("invalid secret key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = schnorr.Order.String()
		_, err := loadProvider(cfg, logger)
		require.Error(t, err)
	})

	t.Run("key file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "provider.key")
		require.NoError(t, keystore.Save(path, 12, big.NewInt(99), false))

		cfg := testConfig()
		cfg.ProviderID = 0
		cfg.KeyFile = path
		p, err := loadProvider(cfg, logger)
		require.NoError(t, err)
		require.Equal(t, 12, p.ID())
	})

	t.Run("ephemeral", func(t *testing.T) {
		p, err := loadProvider(testConfig(), logger)
		require.NoError(t, err)
		require.Equal(t, 1, p.ID())
	})
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.Port = freePort(t)

	provider, err := api.NewProvider(4, big.NewInt(31), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, provider, NewLogger(io.Discard, "info", "text"))
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
