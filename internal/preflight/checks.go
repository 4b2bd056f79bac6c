package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cinefile/internal/catalog/tmdb"
	"cinefile/internal/cloudsync"
	"cinefile/internal/config"
)

const probeQuery = "the"

// CheckTMDB verifies that the catalog API is reachable and the key is valid.
// It issues one search request with no retries.
func CheckTMDB(ctx context.Context, baseURL, apiKey string) Result {
	const name = "TMDB"

	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "API key missing (titles stay unresolved)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := tmdb.New(apiKey, baseURL, "", tmdb.WithTimeout(10*time.Second))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client setup failed (%v)", err)}
	}
	if _, err := client.SearchMovie(checkCtx, probeQuery, 0); err != nil {
		return Result{Name: name, Detail: summarizeTMDBError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTMDBFromConfig runs CheckTMDB with the configured endpoint and key.
func CheckTMDBFromConfig(ctx context.Context, cfg *config.Config) Result {
	return CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey)
}

// CheckSync verifies that the sync database accepts connections.
func CheckSync(ctx context.Context, cfg *config.Config) Result {
	const name = "Sync database"

	if strings.TrimSpace(cfg.Sync.UserID) == "" {
		return Result{Name: name, Detail: "user_id missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := cloudsync.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	_ = db.Close()
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeTMDBError(err error) string {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Unauthorized() {
			return "auth failed (invalid api key)"
		}
		return fmt.Sprintf("request failed (%d)", statusErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "unreachable (network error)"
	}
	return fmt.Sprintf("request failed (%v)", err)
}
