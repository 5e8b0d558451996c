package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/shared/utils"
)

func newBorrowCmd() *cobra.Command {
	var (
		memberID string
		bookIDs  []string
		dueDate  string
	)

	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend one or more books to a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd.Context())

			mid, err := uuid.Parse(memberID)
			if err != nil {
				return fmt.Errorf("invalid --member: %w", err)
			}
			books, err := parseIDs("--book", bookIDs)
			if err != nil {
				return err
			}

			c, err := openContainer(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer closeContainer(c)

			created, err := c.BorrowingService.Borrow(ctx, &borrowing.BorrowRequest{
				MemberID: mid,
				BookIDs:  books,
				DueDate:  dueDate,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), borrowing.ToResponses(created))
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member id")
	cmd.Flags().StringSliceVar(&bookIDs, "book", nil, "book id, repeatable")
	cmd.Flags().StringVar(&dueDate, "due", "", "due date (2006-01-02), defaults to the standard loan period")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newReturnCmd() *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Close borrowings and compute fines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd.Context())

			borrowingIDs, err := parseIDs("--id", ids)
			if err != nil {
				return err
			}

			c, err := openContainer(ctx, configFrom(ctx))
			if err != nil {
				return err
			}
			defer closeContainer(c)

			returned, err := c.BorrowingService.Return(ctx, &borrowing.ReturnRequest{BorrowingIDs: borrowingIDs})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), borrowing.ToResponses(returned))
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "borrowing id, repeatable")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func parseIDs(flag string, raw []string) ([]uuid.UUID, error) {
	ids, err := utils.ParseUUIDs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return ids, nil
}
