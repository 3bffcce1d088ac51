package db

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertAssignmentQuery = "INSERT INTO student (guild_id, user_id, username, section, section_id, assignment, due_date, time) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);"
	selectAssignmentQuery = "SELECT assignment, section, due_date, time FROM student WHERE guild_id = $1 AND user_id = $2 ORDER BY due_date, time;"
)

// Assignment is one registered assignment of a student.
type Assignment struct {
	GuildID    snowflake.ID `db:"guild_id"`
	UserID     snowflake.ID `db:"user_id"`
	Username   string       `db:"username"`
	Section    string       `db:"section"`
	SectionID  snowflake.ID `db:"section_id"`
	Assignment string       `db:"assignment"`
	DueDate    time.Time    `db:"due_date"`
	Time       pgtype.Time  `db:"time"`
}

// DueTime returns the wall clock time the assignment is due at.
func (a Assignment) DueTime() time.Time {
	return time.Time{}.Add(time.Duration(a.Time.Microseconds) * time.Microsecond)
}

type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

func (db *DB) InsertAssignment(ctx context.Context, a Assignment) error {
	_, err := db.pool.Exec(ctx, insertAssignmentQuery,
		a.GuildID, a.UserID, a.Username, a.Section, a.SectionID, a.Assignment, a.DueDate, a.Time)
	return err
}

func (db *DB) GetAssignments(ctx context.Context, guildID snowflake.ID, userID snowflake.ID) ([]Assignment, error) {
	rows, _ := db.pool.Query(ctx, selectAssignmentQuery, guildID, userID)
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[Assignment])
}

// TimeOfDay converts the clock part of t to a postgres time value.
func TimeOfDay(t time.Time) pgtype.Time {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}
