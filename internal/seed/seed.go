package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/shelfclub/internal/app/models"
)

const demoClubName = "Tuesday Readers"

type demoUser struct {
	email string
	name  string
	role  appModels.ClubRole
}

var demoUsers = []demoUser{
	{"owner@shelfclub.dev", "Olivia Owner", appModels.ClubRoleOwner},
	{"admin@shelfclub.dev", "Adam Admin", appModels.ClubRoleAdmin},
	{"ana@shelfclub.dev", "Ana Reader", appModels.ClubRoleMember},
	{"ben@shelfclub.dev", "Ben Reader", appModels.ClubRoleMember},
	{"cem@shelfclub.dev", "Cem Reader", appModels.ClubRoleMember},
}

var demoBooks = []struct{ title, author string }{
	{"Dune", "Frank Herbert"},
	{"Middlemarch", "George Eliot"},
	{"The Left Hand of Darkness", "Ursula K. Le Guin"},
	{"Beloved", "Toni Morrison"},
	{"The Remains of the Day", "Kazuo Ishiguro"},
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// CreateDemoData inserts demo users, books and one club with an owner, an
// admin and three members. Existing rows are reused, so running it again is
// harmless. Errors are collected and returned together.
func CreateDemoData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo data (users, books, club)...")
	var finalErr error

	userIDs := make(map[string]int64, len(demoUsers))
	for _, u := range demoUsers {
		id, err := upsertUser(ctx, dbPool, u.email, u.name)
		if err != nil {
			lgr.Error().Err(err).Str("email", u.email).Msg("Error creating demo user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		userIDs[u.email] = id
	}

	for _, b := range demoBooks {
		if _, err := ensureBook(ctx, dbPool, b.title, b.author); err != nil {
			lgr.Error().Err(err).Str("title", b.title).Msg("Error creating demo book")
			finalErr = errors.Join(finalErr, err)
		}
	}

	ownerID, ok := userIDs[demoUsers[0].email]
	if !ok {
		lgr.Error().Msg("Demo owner missing, skipping club creation")
		return errors.Join(finalErr, errors.New("demo owner was not created"))
	}

	clubID, err := ensureClub(ctx, dbPool, demoClubName, ownerID)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating demo club")
		return errors.Join(finalErr, err)
	}

	for _, u := range demoUsers {
		userID, ok := userIDs[u.email]
		if !ok {
			continue
		}
		if err := addMember(ctx, dbPool, clubID, userID, u.role); err != nil {
			lgr.Error().Err(err).Str("email", u.email).Msg("Error adding demo member")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int64("clubID", clubID).Int("members", len(userIDs)).Msg("Demo data check/creation finished.")
	return finalErr
}

func upsertUser(ctx context.Context, db *pgxpool.Pool, email, name string) (int64, error) {
	sql, args, err := psql.Insert("users").
		Columns("email", "display_name").
		Values(email, name).
		Suffix("ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("error upserting user %s: %w", email, err)
	}
	return id, nil
}

func ensureBook(ctx context.Context, db *pgxpool.Pool, title, author string) (int64, error) {
	id, err := findID(ctx, db, psql.Select("id").From("books").Where(squirrel.Eq{"title": title, "author": author}))
	if err != nil || id > 0 {
		return id, err
	}
	return insertReturningID(ctx, db, psql.Insert("books").Columns("title", "author").Values(title, author))
}

func ensureClub(ctx context.Context, db *pgxpool.Pool, name string, ownerID int64) (int64, error) {
	id, err := findID(ctx, db, psql.Select("id").From("clubs").Where(squirrel.Eq{"name": name, "owner_id": ownerID}))
	if err != nil || id > 0 {
		return id, err
	}
	return insertReturningID(ctx, db, psql.Insert("clubs").Columns("name", "owner_id").Values(name, ownerID))
}

func addMember(ctx context.Context, db *pgxpool.Pool, clubID, userID int64, role appModels.ClubRole) error {
	sql, args, err := psql.Insert("club_members").
		Columns("club_id", "user_id", "role", "status").
		Values(clubID, userID, string(role), string(appModels.MembershipActive)).
		Suffix("ON CONFLICT (club_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error adding member %d to club %d: %w", userID, clubID, err)
	}
	return nil
}

func findID(ctx context.Context, db *pgxpool.Pool, query squirrel.SelectBuilder) (int64, error) {
	sql, args, err := query.Limit(1).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = db.QueryRow(ctx, sql, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return id, nil
}

func insertReturningID(ctx context.Context, db *pgxpool.Pool, query squirrel.InsertBuilder) (int64, error) {
	sql, args, err := query.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("error executing insert: %w", err)
	}
	return id, nil
}
