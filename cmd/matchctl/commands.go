package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"staff-match/internal/database/migration"
	"staff-match/internal/database/seeder"
	"staff-match/internal/delivery/http/dto"
	"staff-match/internal/domain/entity"
	"staff-match/internal/usecase"

	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("database is not configured (set DB_HOST and DB_NAME)")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if c.DB == nil {
				return errNoDatabase
			}
			applied, err := migration.Runner{Logger: c.Logger}.Run(cmd.Context(), c.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert jobs and workers from a YAML fixture into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if c.DB == nil {
				return errNoDatabase
			}
			fx, err := seeder.LoadFixture(file)
			if err != nil {
				return err
			}
			if err := (seeder.Runner{Seeders: []seeder.Seeder{fx}, Logger: c.Logger}).RunDB(cmd.Context(), c.DB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entities\n", len(fx.Entities()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the YAML fixture (required)")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	return cmd
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		force    bool
		assisted bool
		topK     int
		minScore float64
	)
	cmd := &cobra.Command{
		Use:   "match <job|worker> <id>",
		Short: "Compute ranked matches for a job or a worker and print them as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := entity.ParseKind(args[0])
			if err != nil {
				return err
			}

			req := dto.MatchRequest{ForceRefresh: force, Assisted: assisted}
			if cmd.Flags().Changed("top-k") || cmd.Flags().Changed("min-score") {
				req.Criteria = &dto.CriteriaRequest{}
				if cmd.Flags().Changed("top-k") {
					req.Criteria.TopK = &topK
				}
				if cmd.Flags().Changed("min-score") {
					req.Criteria.MinMatchScore = &minScore
				}
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
			}

			c, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.MatchingUC.ComputeMatches(cmd.Context(), usecase.MatchRequest{
				SubjectKind:  kind,
				SubjectID:    args[1],
				Override:     req.Override(),
				ForceRefresh: req.ForceRefresh,
				Assisted:     req.Assisted,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewMatchListResponse(res))
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore any cached result")
	cmd.Flags().BoolVar(&assisted, "assisted", false, "cache under the assisted TTL")
	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum number of matches (0 means no limit)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum total score in [0,1]")
	return cmd
}

func newInvalidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <job|worker> <id>",
		Short: "Drop every cached match result for a subject",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := entity.ParseKind(args[0])
			if err != nil {
				return err
			}
			c, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.MatchingUC.InvalidateSubject(cmd.Context(), kind, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s %s\n", kind, args[1])
			return nil
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Issue an access token for submitting feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			tok, err := c.Tokens.GenerateAccessToken(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "recruiter", "role claim")
	return cmd
}
