package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"musicworks/internal/authzclient"
	"musicworks/internal/upload"
	"musicworks/pkg/domain"
)

func newAuthorizationCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "authorization",
		Args:    cobra.NoArgs,
		Aliases: []string{"authz"},
		Short:   "Request and review exclusivity and additional rights",
	}
	cmd.AddCommand(
		newAuthzSubmitCommand(e),
		newAuthzListCommand(e),
		newAuthzDecisionCommand(e, "approve", "Approve a pending request", e.approve),
		newAuthzDecisionCommand(e, "reject", "Reject a pending request", e.reject),
	)
	return cmd
}

func newAuthzSubmitCommand(e *env) *cobra.Command {
	var (
		workID, requestType, description string
		proofs                           []string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Args:  cobra.NoArgs,
		Short: "Submit an authorization request with proof documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := domain.RequestType(requestType)
			if rt != domain.RequestExclusivity && rt != domain.RequestAdditionalRights {
				return fmt.Errorf("--type must be %s or %s", domain.RequestExclusivity, domain.RequestAdditionalRights)
			}
			cfg := e.app.UploadConfig()
			cfg.AllowedExtensions = append(append([]string{}, upload.DocumentExtensions...), upload.ImageExtensions...)
			cfg.InspectDocuments = true
			selected, err := selectFiles(cmd, e, cfg, proofs)
			if err != nil {
				return err
			}
			req := authzclient.SubmitRequest{WorkID: workID, RequestType: rt, Description: description}
			for _, c := range selected {
				rc, err := c.Open()
				if err != nil {
					return fmt.Errorf("open %s: %w", c.Name, err)
				}
				defer rc.Close()
				req.ProofFiles = append(req.ProofFiles, authzclient.ProofFile{Name: c.Name, Body: rc})
			}
			created, err := e.app.Authorization.Submit(cmd.Context(), req)
			if err != nil {
				return sessionError(err, e.app.Authorization.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted request %s (%s)\n", created.ID, created.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workID, "work", "w", "", "work id")
	cmd.Flags().StringVar(&requestType, "type", string(domain.RequestExclusivity), "exclusivity or additional_rights")
	cmd.Flags().StringVarP(&description, "description", "d", "", "why the rights are requested")
	cmd.Flags().StringArrayVar(&proofs, "proof", nil, "proof document (repeatable)")
	_ = cmd.MarkFlagRequired("work")
	return cmd
}

func newAuthzListCommand(e *env) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "List authorization requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			e.app.Authorization.FetchRequests(cmd.Context(), params)
			snap := e.app.Authorization.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			printRequests(cmd.OutOrStdout(), snap.Requests, snap.Pagination)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newAuthzDecisionCommand(e *env, use, short string, decide func(cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Args:  cobra.ExactArgs(1),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(cmd, args)
			if err != nil {
				return err
			}
			if err := decide(cmd, id); err != nil {
				return sessionError(err, e.app.Authorization.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s %sd\n", id, use)
			return nil
		},
	}
}

func (e *env) approve(cmd *cobra.Command, id string) error {
	return e.app.Authorization.Approve(cmd.Context(), id)
}

func (e *env) reject(cmd *cobra.Command, id string) error {
	return e.app.Authorization.Reject(cmd.Context(), id)
}
