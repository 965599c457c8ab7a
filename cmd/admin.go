package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"jackpot/config"
	"jackpot/domain/services"
	"jackpot/infrastructure"

	"github.com/spf13/cobra"
)

type ledgerAction func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error)

// runAdmin opens the ledger without event delivery, runs the action and
// prints its result as JSON
func runAdmin(cmd *cobra.Command, action ledgerAction) error {
	ctx := cmd.Context()
	handle, err := openLedger(ctx, config.Get(), infrastructure.NewNoopEventPublisher(), services.NoopLedgerMetrics{})
	if err != nil {
		return err
	}
	defer handle.Close()

	result, err := action(ctx, handle.coordinator)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func parseAmount(raw string) (int64, error) {
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// callerFlag registers --caller, defaulting to the configured owner
func callerFlag(cmd *cobra.Command) func() string {
	cmd.Flags().String("caller", "", "account performing the action (default: configured owner)")
	return func() string {
		caller, _ := cmd.Flags().GetString("caller")
		if caller == "" {
			caller = config.Get().OwnerID
		}
		return caller
	}
}

func newAdminCommand() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Operate the ledger directly from the command line",
	}

	adminCmd.AddCommand(
		newAdminInitCommand(),
		newAdminOwnerCommand(),
		newAdminSetOwnerCommand(),
		newAdminDepositCommand(),
		newAdminWithdrawCommand(),
		newAdminCreateRoundCommand(),
		newAdminBuyCommand(),
		newAdminDrawCommand(),
		newAdminRoundCommand(),
		newAdminRoundsCommand(),
		newAdminBalanceCommand(),
		newAdminTicketsCommand(),
		newAdminHistoryCommand(),
	)
	return adminCmd
}

func newAdminInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger with its owner",
		Args:  cobra.NoArgs,
	}
	owner := callerFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
			if err := ledger.Initialize(ctx, owner()); err != nil {
				return nil, err
			}
			return map[string]string{"ownerId": owner()}, nil
		})
	}
	return cmd
}

func newAdminOwnerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Show the ledger owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				owner, err := ledger.GetOwnerID(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]string{"ownerId": owner}, nil
			})
		},
	}
}

func newAdminSetOwnerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-owner NEW_OWNER",
		Short: "Transfer ledger ownership",
		Args:  cobra.ExactArgs(1),
	}
	caller := callerFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
			if err := ledger.SetOwnerID(ctx, caller(), args[0]); err != nil {
				return nil, err
			}
			return map[string]string{"ownerId": args[0]}, nil
		})
	}
	return cmd
}

func newAdminDepositCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit ACCOUNT AMOUNT",
		Short: "Credit an account from the payment rail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				return ledger.Deposit(ctx, args[0], amount)
			})
		},
	}
}

func newAdminWithdrawCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ACCOUNT",
		Short: "Pay out the full balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				amount, err := ledger.Withdraw(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"accountId": args[0], "withdrawn": amount}, nil
			})
		},
	}
}

func newAdminCreateRoundCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-round",
		Short: "Open a new jackpot",
		Args:  cobra.NoArgs,
	}
	caller := callerFlag(cmd)
	cmd.Flags().Int64("price", 0, "ticket price (default: configured default price)")
	cmd.Flags().Int64("seed", 0, "amount seeded into the jackpot")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var price *int64
		if cmd.Flags().Changed("price") {
			p, _ := cmd.Flags().GetInt64("price")
			price = &p
		}
		seed, _ := cmd.Flags().GetInt64("seed")
		return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
			return ledger.CreateRound(ctx, caller(), price, seed)
		})
	}
	return cmd
}

func newAdminBuyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "buy ACCOUNT N1 N2 N3 N4 N5 N6",
		Short: "Buy a ticket in the open jackpot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers := make([]int, 0, len(args)-1)
			for _, raw := range args[1:] {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("invalid number %q: %w", raw, err)
				}
				numbers = append(numbers, n)
			}
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				return ledger.BuyTicket(ctx, args[0], numbers)
			})
		},
	}
}

func newAdminDrawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw the open jackpot",
		Args:  cobra.NoArgs,
	}
	caller := callerFlag(cmd)
	cmd.Flags().Bool("force", false, "draw the numbers of a randomly picked ticket")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
			return ledger.DrawRound(ctx, caller(), force)
		})
	}
	return cmd
}

func newAdminRoundCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "round",
		Short: "Show the latest jackpot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				return ledger.GetLatestRound(ctx)
			})
		},
	}
}

func newAdminRoundsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rounds",
		Short: "List every jackpot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				return ledger.GetAllRounds(ctx)
			})
		},
	}
}

func newAdminBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				balance, err := ledger.GetAccountBalance(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"accountId": args[0], "balance": balance}, nil
			})
		},
	}
}

func newAdminTicketsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tickets ACCOUNT",
		Short: "List the tickets of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
				return ledger.GetAccountTickets(ctx, args[0])
			})
		},
	}
}

func newAdminHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history ACCOUNT",
		Short: "Show the newest balance changes of an account",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().Int("limit", services.DefaultHistoryLimit, "maximum number of entries")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runAdmin(cmd, func(ctx context.Context, ledger *services.LotteryCoordinator) (any, error) {
			return ledger.GetAccountHistory(ctx, args[0], limit)
		})
	}
	return cmd
}
