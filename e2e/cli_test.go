package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/crosswordgame-daily/internal/api"
	"github.com/mcoot/crosswordgame-daily/internal/factory"
	"github.com/mcoot/crosswordgame-daily/internal/testutil"
)

// cliRunner runs the dailyctl binary as one machine: its own token and
// local score files
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
	stateFile  string
}

func buildCLI(t *testing.T) string {
	t.Helper()

	projectRoot := findProjectRoot(t)
	binaryPath := filepath.Join(t.TempDir(), "dailyctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dailyctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))
	return binaryPath
}

func newCLIRunner(t *testing.T, binaryPath, serverURL string) *cliRunner {
	t.Helper()
	dir := t.TempDir()
	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(dir, "token"),
		stateFile:  filepath.Join(dir, "local_score.json"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--state-file", r.stateFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "DAILY_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the real application over SQLite on a free port
func startTestServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	app, err := factory.New(t.Context(), factory.Config{
		StorageType: factory.StorageTypeSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "scores.db"),
	})
	require.NoError(t, err)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = port
	server := api.NewServer(api.NewRouter(app.RouterConfig()), serverConfig, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Logf("server error: %v", err)
		}
		_ = app.Close()
	})

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Player struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"player"`
	SessionToken   string `json:"session_token"`
	Reconciliation *struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
		Score  *struct {
			ID string `json:"id"`
		} `json:"score"`
	} `json:"reconciliation"`
}

type submitResponse struct {
	ID       string `json:"id"`
	Existing bool   `json:"existing"`
	Rank     int    `json:"rank"`
}

type leaderboardResponse struct {
	Entries []struct {
		Rank        int    `json:"rank"`
		DisplayName string `json:"display_name"`
		Score       int    `json:"score"`
	} `json:"entries"`
	HasMore  bool `json:"has_more"`
	NextFrom int  `json:"next_from"`
}

func TestDailyFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}

	serverURL := startTestServer(t)
	binary := buildCLI(t)
	laptop := newCLIRunner(t, binary, serverURL)
	phone := newCLIRunner(t, binary, serverURL)

	// Bob plays signed in on the laptop
	var bob authResponse
	laptop.runJSON(t, &bob, "player", "register", "--name", "Bob", "--user", "bob", "--pass", "pw")
	var bobScore submitResponse
	laptop.runJSON(t, &bobScore, "score", "submit", "--score", "900", "--time", "300")
	assert.Equal(t, 1, bobScore.Rank)

	// Resubmitting is a no-op
	var again submitResponse
	laptop.runJSON(t, &again, "score", "submit", "--score", "100", "--time", "1")
	assert.True(t, again.Existing)
	assert.Equal(t, bobScore.ID, again.ID)

	// Alice has an account but plays on the phone before signing in
	var alice authResponse
	newCLIRunner(t, binary, serverURL).runJSON(t, &alice, "player", "register", "--name", "Alice", "--user", "alice", "--pass", "pw")
	var anon submitResponse
	phone.runJSON(t, &anon, "score", "submit", "--score", "950", "--time", "200")

	var board leaderboardResponse
	phone.runJSON(t, &board, "leaderboard")
	require.Len(t, board.Entries, 1, "anonymous play is not on the leaderboard")

	// Signing in on the phone claims the anonymous score
	var login authResponse
	phone.runJSON(t, &login, "player", "login", "--user", "alice", "--pass", "pw")
	require.NotNil(t, login.Reconciliation)
	assert.Equal(t, "claimed_anonymous", login.Reconciliation.Action)
	require.NotNil(t, login.Reconciliation.Score)
	assert.Equal(t, anon.ID, login.Reconciliation.Score.ID)

	phone.runJSON(t, &board, "leaderboard", "--page-size", "1")
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Alice", board.Entries[0].DisplayName)
	assert.True(t, board.HasMore)
	assert.Equal(t, 1, board.NextFrom)

	phone.runJSON(t, &board, "leaderboard", "--from", "1", "--page-size", "1")
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Bob", board.Entries[0].DisplayName)
	assert.Equal(t, 2, board.Entries[0].Rank)

	// Signing in again finds the score already on the server
	var relogin authResponse
	phone.runJSON(t, &relogin, "player", "login", "--user", "alice", "--pass", "pw")
	require.NotNil(t, relogin.Reconciliation)
	assert.Equal(t, "loaded_existing", relogin.Reconciliation.Action)
}
