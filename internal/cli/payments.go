package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"musicworks/internal/checkout"
	"musicworks/internal/receipt"
	"musicworks/pkg/domain"
)

func newPaymentsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Args:    cobra.NoArgs,
		Aliases: []string{"pay"},
		Short:   "Pay for registrations and review payment history",
	}
	cmd.AddCommand(
		newPlansCommand(),
		newPaymentCreateCommand(e),
		newPaymentHistoryCommand(e),
		newPaymentGetCommand(e),
		newPaymentConfirmCommand(e),
		newPaymentAwaitCommand(e),
		newPaymentReceiptCommand(e),
	)
	return cmd
}

func newPlansCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Args:  cobra.NoArgs,
		Short: "List payment plans",
		// plans are static; skip loading config and credentials
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "PLAN\tDESCRIPTION\tPRICE")
			for _, p := range checkout.Plans() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Description, p.Price())
			}
			return tw.Flush()
		},
	}
}

func newPaymentCreateCommand(e *env) *cobra.Command {
	var (
		planID  string
		workID  string
		await   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create",
		Args:  cobra.NoArgs,
		Short: "Start a payment and print the checkout URL",
		Long: "Start a payment for a plan. With --await the command keeps a local " +
			"confirmation endpoint open until the provider redirects back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, ok := checkout.FindPlan(planID)
			if !ok {
				return fmt.Errorf("unknown plan %q (run `payments plans`)", planID)
			}
			var srv *checkout.CallbackServer
			if await {
				var err error
				if srv, err = startCallback(cmd, e); err != nil {
					return err
				}
				defer shutdownCallback(srv)
			}
			url, err := e.app.Payments.CreatePayment(cmd.Context(), plan.Request(workID))
			if err != nil {
				return sessionError(err, e.app.Payments.Snapshot().Error)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s for %s\n", plan.Description, plan.Price())
			fmt.Fprintf(out, "Complete the payment at: %s\n", url)
			if srv == nil {
				return nil
			}
			return awaitOutcome(cmd, srv, timeout)
		},
	}
	cmd.Flags().StringVar(&planID, "plan", checkout.PlanSingle.ID, "plan id: subscription or single")
	cmd.Flags().StringVarP(&workID, "work", "w", "", "work the payment is for")
	cmd.Flags().BoolVar(&await, "await", false, "wait for the provider redirect and confirm the payment")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "how long --await waits")
	return cmd
}

func newPaymentHistoryCommand(e *env) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "history",
		Args:  cobra.NoArgs,
		Short: "List your payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			e.app.Payments.FetchPayments(cmd.Context(), params)
			snap := e.app.Payments.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			printPayments(cmd.OutOrStdout(), snap.Payments, snap.Pagination)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newPaymentGetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show one payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			payment, err := fetchPayment(cmd, e, args)
			if err != nil {
				return err
			}
			printPayment(cmd.OutOrStdout(), payment)
			return nil
		},
	}
}

func newPaymentConfirmCommand(e *env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "confirm <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Confirm a payment as if the provider had redirected back",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(cmd, args)
			if err != nil {
				return err
			}
			res := e.app.Confirmer.Handle(cmd.Context(), checkout.Return{PaymentID: id, Status: status})
			return printOutcome(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&status, "status", checkout.StatusApproved, "provider status: approved, failure or pending")
	return cmd
}

func newPaymentAwaitCommand(e *env) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "await",
		Args:  cobra.NoArgs,
		Short: "Serve the local confirmation endpoint until one redirect arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := startCallback(cmd, e)
			if err != nil {
				return err
			}
			defer shutdownCallback(srv)
			return awaitOutcome(cmd, srv, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "how long to wait")
	return cmd
}

func newPaymentReceiptCommand(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "receipt <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Write a PDF receipt for a payment",
		Long:  "Write a PDF receipt. --out accepts a local path or an s3://bucket/key reference.",
		RunE: func(cmd *cobra.Command, args []string) error {
			payment, err := fetchPayment(cmd, e, args)
			if err != nil {
				return err
			}
			var work *domain.Work
			if payment.WorkID != "" {
				e.app.Works.FetchWork(cmd.Context(), payment.WorkID)
				work = e.app.Works.Snapshot().CurrentWork
			}
			data, err := receipt.Render(payment, work)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(out)
			if target == "" {
				target = fmt.Sprintf("receipt-%s.pdf", payment.ID)
			}
			if err := e.app.Files.Write(cmd.Context(), target, data, "application/pdf"); err != nil {
				return fmt.Errorf("write receipt: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt written to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination (default receipt-<id>.pdf)")
	return cmd
}

func fetchPayment(cmd *cobra.Command, e *env, args []string) (domain.Payment, error) {
	id, err := requireID(cmd, args)
	if err != nil {
		return domain.Payment{}, err
	}
	e.app.Payments.FetchPayment(cmd.Context(), id)
	snap := e.app.Payments.Snapshot()
	if err := storeError(snap.Error); err != nil {
		return domain.Payment{}, err
	}
	if snap.CurrentPayment == nil {
		return domain.Payment{}, fmt.Errorf("payment %s not found", id)
	}
	return *snap.CurrentPayment, nil
}

func startCallback(cmd *cobra.Command, e *env) (*checkout.CallbackServer, error) {
	srv, err := e.app.NewCallbackServer()
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Waiting for the payment redirect on %s\n", srv.URL())
	return srv, nil
}

func shutdownCallback(srv *checkout.CallbackServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func awaitOutcome(cmd *cobra.Command, srv *checkout.CallbackServer, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	res, err := srv.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no payment redirect within %s", timeout)
	}
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), res)
}

// printOutcome prints res and turns a failed outcome into an error so the
// exit status reflects it.
func printOutcome(w io.Writer, res checkout.Result) error {
	switch res.Outcome {
	case checkout.OutcomeSuccess:
		fmt.Fprintln(w, "Payment Successful!")
	case checkout.OutcomePending:
		fmt.Fprintln(w, "Payment Pending")
	default:
		fmt.Fprintln(w, "Payment Failed")
	}
	fmt.Fprintln(w, res.Message)
	if res.Payment != nil {
		printPayment(w, *res.Payment)
	}
	if res.Outcome == checkout.OutcomeFailed {
		return errors.New(res.Message)
	}
	return nil
}
