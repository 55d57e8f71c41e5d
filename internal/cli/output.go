package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"musicworks/internal/apiclient"
	"musicworks/internal/registration"
	"musicworks/internal/upload"
	"musicworks/pkg/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printWorks(w io.Writer, works []domain.Work, p domain.Pagination) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tISRC\tSTATUS\tCREATED")
	for _, wk := range works {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wk.ID, wk.Title, strings.Join(wk.Authors, ", "), dash(wk.ISRC), wk.Status, formatTime(wk.CreatedAt))
	}
	tw.Flush()
	printPagination(w, p)
}

func printWork(w io.Writer, wk domain.Work) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", wk.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", wk.Title)
	fmt.Fprintf(tw, "Authors:\t%s\n", strings.Join(wk.Authors, ", "))
	if len(wk.CoAuthors) > 0 {
		fmt.Fprintf(tw, "Co-authors:\t%s\n", strings.Join(wk.CoAuthors, ", "))
	}
	fmt.Fprintf(tw, "ISRC:\t%s\n", dash(wk.ISRC))
	fmt.Fprintf(tw, "ISWC:\t%s\n", dash(wk.ISWC))
	fmt.Fprintf(tw, "Status:\t%s\n", wk.Status)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(wk.CreatedAt))
	tw.Flush()
	if len(wk.Files) == 0 {
		return
	}
	fmt.Fprintln(w, "Files:")
	printFiles(w, wk.Files)
}

func printFiles(w io.Writer, files []domain.WorkFile) {
	tw := newTable(w)
	for _, f := range files {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.FileName, f.FileType, upload.FormatSize(f.FileSize))
	}
	tw.Flush()
}

func printPayments(w io.Writer, payments []domain.Payment, p domain.Pagination) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tAMOUNT\tSTATUS\tMETHOD\tCREATED")
	for _, pm := range payments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			pm.ID, domain.FormatAmount(pm.Amount, pm.Currency), pm.Status, pm.PaymentMethod, formatTime(pm.CreatedAt))
	}
	tw.Flush()
	printPagination(w, p)
}

func printPayment(w io.Writer, pm domain.Payment) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", pm.ID)
	fmt.Fprintf(tw, "Amount:\t%s\n", domain.FormatAmount(pm.Amount, pm.Currency))
	fmt.Fprintf(tw, "Status:\t%s\n", pm.Status)
	fmt.Fprintf(tw, "Method:\t%s\n", pm.PaymentMethod)
	fmt.Fprintf(tw, "Work:\t%s\n", dash(pm.WorkID))
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(pm.CreatedAt))
	tw.Flush()
}

func printRequests(w io.Writer, reqs []domain.AuthorizationRequest, p domain.Pagination) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tWORK\tTYPE\tSTATUS\tCREATED")
	for _, r := range reqs {
		work := r.WorkID
		if r.Work != nil && r.Work.Title != "" {
			work = r.Work.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, work, r.RequestType, r.Status, formatTime(r.CreatedAt))
	}
	tw.Flush()
	printPagination(w, p)
}

func printUsers(w io.Writer, users []domain.User, p domain.Pagination) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n", u.ID, u.Email, u.FirstName, u.LastName, u.Role, formatTime(u.CreatedAt))
	}
	tw.Flush()
	printPagination(w, p)
}

func printPagination(w io.Writer, p domain.Pagination) {
	if p.TotalPages == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	fmt.Fprintf(w, "Page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
}

// storeError turns a failed store action into a command error. The store
// message is what the user sees.
func storeError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// actionError reports a failed store mutation with the message the store
// recorded, falling back to err.
func actionError(err error, msg string) error {
	if msg != "" {
		return errors.New(msg)
	}
	return err
}

// sessionError is actionError for commands that need a signed-in user.
func sessionError(err error, msg string) error {
	return withLoginHint(err, actionError(err, msg))
}

// withLoginHint points at auth login when the API rejected the token.
func withLoginHint(cause, shown error) error {
	if apiclient.IsUnauthorized(cause) {
		return fmt.Errorf("%w (run \"musicworks auth login\")", shown)
	}
	return shown
}

// commandError prefers the server or validation message over the raw error.
func commandError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var verr *registration.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return withLoginHint(err, fmt.Errorf("%s: %w", apiclient.MessageOr(err, fallback), err))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func requireID(cmd *cobra.Command, args []string) (string, error) {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", fmt.Errorf("%s: id is required", cmd.Name())
	}
	return id, nil
}
