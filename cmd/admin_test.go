package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"jackpot/config"
	"jackpot/domain"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adminRunner executes CLI invocations against one LevelDB directory
type adminRunner struct {
	t    *testing.T
	path string
}

func newAdminRunner(t *testing.T) *adminRunner {
	t.Helper()
	t.Cleanup(config.ResetConfig)
	return &adminRunner{t: t, path: filepath.Join(t.TempDir(), "ledger")}
}

func (r *adminRunner) run(args ...string) ([]byte, error) {
	r.t.Helper()

	var out bytes.Buffer
	rootCmd := NewRootCommand(viper.New())
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--storage-backend", config.StorageBackendLevelDB,
		"--leveldb-path", r.path,
		"--log-level", "error",
	}, args...))

	err := rootCmd.Execute()
	return out.Bytes(), err
}

func (r *adminRunner) mustRun(target any, args ...string) {
	r.t.Helper()
	out, err := r.run(args...)
	require.NoError(r.t, err, "jackpot %v", args)
	if target != nil {
		require.NoError(r.t, json.Unmarshal(out, target), "output: %s", out)
	}
}

func TestAdminCommands_FullRound(t *testing.T) {
	r := newAdminRunner(t)

	var owner map[string]string
	r.mustRun(&owner, "admin", "init", "--caller", "owner")
	assert.Equal(t, "owner", owner["ownerId"])

	var account struct {
		AccountID string `json:"accountId"`
		Balance   int64  `json:"balance"`
	}
	r.mustRun(&account, "admin", "deposit", "alice", "10")
	assert.Equal(t, "alice", account.AccountID)
	assert.Equal(t, int64(10), account.Balance)

	var round struct {
		ID          int64 `json:"id"`
		TicketPrice int64 `json:"ticketPrice"`
	}
	r.mustRun(&round, "admin", "create-round", "--caller", "owner", "--price", "2")
	assert.Equal(t, int64(1), round.ID)
	assert.Equal(t, int64(2), round.TicketPrice)

	var ticket struct {
		ID            int64 `json:"id"`
		PickedNumbers []int `json:"pickedNumbers"`
	}
	r.mustRun(&ticket, "admin", "buy", "alice", "6", "5", "4", "3", "2", "1")
	assert.Equal(t, int64(1), ticket.ID)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ticket.PickedNumbers)

	var outcome struct {
		JackpotID      int64   `json:"jackpotId"`
		WinTicketIDs   []int64 `json:"winTicketIds"`
		PrizePerWinner int64   `json:"prizePerWinner"`
		Closed         bool    `json:"closed"`
		Forced         bool    `json:"forced"`
	}
	r.mustRun(&outcome, "admin", "draw", "--caller", "owner", "--force")
	assert.Equal(t, int64(1), outcome.JackpotID)
	assert.Equal(t, []int64{1}, outcome.WinTicketIDs)
	assert.Equal(t, int64(2), outcome.PrizePerWinner)
	assert.True(t, outcome.Closed)
	assert.True(t, outcome.Forced)

	var balance struct {
		Balance int64 `json:"balance"`
	}
	r.mustRun(&balance, "admin", "balance", "alice")
	assert.Equal(t, int64(10), balance.Balance)

	var tickets []map[string]any
	r.mustRun(&tickets, "admin", "tickets", "alice")
	assert.Len(t, tickets, 1)

	var history []struct {
		TransactionType string `json:"transactionType"`
	}
	r.mustRun(&history, "admin", "history", "alice", "--limit", "2")
	assert.Len(t, history, 2)

	var withdrawn struct {
		Withdrawn int64 `json:"withdrawn"`
	}
	r.mustRun(&withdrawn, "admin", "withdraw", "alice")
	assert.Equal(t, int64(10), withdrawn.Withdrawn)

	r.mustRun(&balance, "admin", "balance", "alice")
	assert.Equal(t, int64(0), balance.Balance)
}

func TestAdminCommands_Errors(t *testing.T) {
	r := newAdminRunner(t)
	r.mustRun(nil, "admin", "init", "--caller", "owner")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "init twice",
			args:    []string{"admin", "init", "--caller", "owner"},
			wantErr: domain.ErrAlreadyInitialized,
		},
		{
			name:    "create round by non-owner",
			args:    []string{"admin", "create-round", "--caller", "mallory"},
			wantErr: domain.ErrPermissionDenied,
		},
		{
			name:    "buy without open round",
			args:    []string{"admin", "buy", "alice", "1", "2", "3", "4", "5", "6"},
			wantErr: domain.ErrNoOpenJackpot,
		},
		{
			name:    "withdraw empty account",
			args:    []string{"admin", "withdraw", "bob"},
			wantErr: domain.ErrNoFunds,
		},
		{
			name:    "non-positive deposit",
			args:    []string{"admin", "deposit", "alice", "0"},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.run(tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdminCommands_InvalidArguments(t *testing.T) {
	r := newAdminRunner(t)

	_, err := r.run("admin", "deposit", "alice", "ten")
	assert.ErrorContains(t, err, "invalid amount")

	_, err = r.run("admin", "buy", "alice", "1", "x")
	assert.ErrorContains(t, err, "invalid number")
}

func TestAdminCommands_LatestRoundBeforeCreate(t *testing.T) {
	r := newAdminRunner(t)
	r.mustRun(nil, "admin", "init", "--caller", "owner")

	out, err := r.run("admin", "round")
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(out))

	out, err = r.run("admin", "rounds")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(out))
}

func TestRootCommand_RejectsUnknownBackend(t *testing.T) {
	t.Cleanup(config.ResetConfig)

	rootCmd := NewRootCommand(viper.New())
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--storage-backend", "carrier-pigeon", "admin", "rounds"})

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestWatchCommand_RequiresNATS(t *testing.T) {
	r := newAdminRunner(t)

	_, err := r.run("watch")
	assert.ErrorContains(t, err, "NATS is disabled")
}
