package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gleejeyly/storefront/internal/domain"
)

func newReviewsCmd(sess *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read and write customer reviews",
	}
	cmd.AddCommand(newReviewsListCmd(sess), newReviewsSubmitCmd(sess))
	return cmd
}

func newReviewsListCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reviews, newest first",
		Long:  "List reviews from the API, falling back to the local mirror when the API is unreachable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reviews, err := sess.adapter.LoadReviews(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), reviews)
		},
	}
}

func newReviewsSubmitCmd(sess *session) *cobra.Command {
	var r domain.Review

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a review",
		Long:  "Submit a review. When the API is unreachable the review is kept locally and pushed on the next sync.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := sess.adapter.SubmitReview(cmd.Context(), r)
			if err != nil {
				return formFailure(cmd.ErrOrStderr(), err)
			}
			out := cmd.OutOrStdout()
			if m.Pending() {
				fmt.Fprintf(out, "Review %d saved locally; it will be sent when the shop is reachable.\n", m.ID)
				return nil
			}
			fmt.Fprintf(out, "Thank you! Review %d posted on %s.\n", m.ID, m.Date)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&r.Name, "name", "", "your name")
	f.StringVar(&r.Email, "email", "", "your email")
	f.IntVar(&r.ProductRating, "product-rating", 0, "product rating, 1-5")
	f.IntVar(&r.ServiceRating, "service-rating", 0, "service rating, 1-5")
	f.StringVar(&r.Comment, "comment", "", "your review, at least 10 characters")
	return cmd
}

// formFailure lists every invalid field of a rejected form.
func formFailure(w io.Writer, err error) error {
	var fe *domain.FormErrors
	if !errors.As(err, &fe) {
		return err
	}
	for _, e := range fe.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
	}
	return errors.New(fe.First().Message)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
