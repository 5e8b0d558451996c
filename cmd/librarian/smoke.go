package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"library-backend/internal/config"
	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/pkg/logger"
)

// smokeResult summarizes one borrow and return round trip.
type smokeResult struct {
	Store       string    `json:"store"`
	MemberID    uuid.UUID `json:"member_id"`
	BookID      uuid.UUID `json:"book_id"`
	BorrowingID uuid.UUID `json:"borrowing_id"`
	Status      string    `json:"status"`
	Fine        string    `json:"fine"`
}

func newSmokeCmd() *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Create a member and a book, then borrow and return it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd.Context())
			cfg := configFrom(ctx)

			var (
				res *smokeResult
				err error
			)
			if memory {
				res, err = smokeMemory(ctx, cfg.Library)
			} else {
				res, err = smokePostgres(ctx, cfg)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "run against the in-memory store")
	return cmd
}

func smokeMemory(ctx context.Context, lib config.LibraryConfig) (*smokeResult, error) {
	ml := newMemoryLibrary(lib)
	now := ml.engine.Today()

	m := (member.CreateMemberRequest{Name: "Smoke Test", Email: "smoke@example.com"}).ToEntity(now)
	b := (book.CreateBookRequest{Title: "Smoke Test", ISBN: smokeISBN()}).ToEntity(now)
	ml.store.PutMember(m)
	ml.store.PutBook(b)

	return roundTrip(ctx, ml.service, "memory", m.ID, b.ID)
}

func smokePostgres(ctx context.Context, cfg *config.Config) (*smokeResult, error) {
	c, err := openContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeContainer(c)

	tag := uuid.NewString()[:8]
	m, err := c.MemberService.Create(ctx, &member.CreateMemberRequest{
		Name:  "Smoke " + tag,
		Email: fmt.Sprintf("smoke-%s@example.com", tag),
	})
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	b, err := c.BookService.Create(ctx, &book.CreateBookRequest{
		Title: "Smoke " + tag,
		ISBN:  smokeISBN(),
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	return roundTrip(ctx, c.BorrowingService, "postgres", m.ID, b.ID)
}

func roundTrip(ctx context.Context, svc borrowing.Service, store string, memberID, bookID uuid.UUID) (*smokeResult, error) {
	borrowed, err := svc.Borrow(ctx, &borrowing.BorrowRequest{MemberID: memberID, BookIDs: []uuid.UUID{bookID}})
	if err != nil {
		return nil, fmt.Errorf("borrow: %w", err)
	}
	returned, err := svc.Return(ctx, &borrowing.ReturnRequest{BorrowingIDs: []uuid.UUID{borrowed[0].ID}})
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}

	got := returned[0]
	logger.FromContext(ctx).Info().
		Str("store", store).
		Str("borrowing_id", got.ID.String()).
		Msg("smoke round trip passed")
	return &smokeResult{
		Store:       store,
		MemberID:    memberID,
		BookID:      bookID,
		BorrowingID: got.ID,
		Status:      string(got.Status),
		Fine:        got.FineAmount.String(),
	}, nil
}

// smokeISBN returns a 13 digit ISBN-shaped value unique enough for reruns.
func smokeISBN() string {
	return fmt.Sprintf("978%010d", time.Now().UnixNano()%10_000_000_000)
}
