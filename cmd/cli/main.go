package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "loans-cli",
		Short:         "NXFinance loans CLI tool",
		Long:          `A command line interface for the NXFinance loan engine: amortization previews, loan inspection and database maintenance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the loans API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("LOANS_TOKEN"), "Bearer token for the loans API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		amortizeCmd(),
		loanCmd(opts),
		accountCmd(),
		migrateCmd(),
	)

	return rootCmd
}

func loanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Loan operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <loan-id>",
		Short: "Show a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loan dto.LoanResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/api/v1/loans/"+args[0], &loan); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), loan)
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule <loan-id>",
		Short: "Show a loan's repayment schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []*dto.ScheduleEntryResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/api/v1/loans/"+args[0]+"/schedule", &entries); err != nil {
				return err
			}
			return printSchedule(cmd.OutOrStdout(), entries)
		},
	}

	paymentsCmd := &cobra.Command{
		Use:   "payments <loan-id>",
		Short: "List payments applied to a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list dto.ListResponse[*dto.PaymentResponse]
			if err := newAPIClient(opts).get(cmd.Context(), "/api/v1/loans/"+args[0]+"/payments", &list); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <loan-id>",
		Short: "Check a loan's balance against its schedule and payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ReconciliationResponse
			if err := newAPIClient(opts).get(cmd.Context(), "/api/v1/admin/loans/"+args[0]+"/consistency", &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.IsReconciled {
				fmt.Fprintf(out, "Consistency check FAILED for loan %s\n", result.LoanID)
				for _, issue := range result.Issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				return fmt.Errorf("loan %s is not reconciled", result.LoanID)
			}

			fmt.Fprintf(out, "Consistency check PASSED for loan %s\n", result.LoanID)
			fmt.Fprintf(out, "Status: %s\n", result.Status)
			fmt.Fprintf(out, "Remaining balance: %s\n", result.RecordedBalance)
			return nil
		},
	}

	cmd.AddCommand(getCmd, scheduleCmd, paymentsCmd, checkCmd)
	return cmd
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

// get fetches path and decodes a 200 response into out. Error responses are
// reported with the API's error message.
func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
