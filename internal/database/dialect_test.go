package database

import (
	"testing"
)

func TestRewriteQueryPostgres(t *testing.T) {
	d := NewPostgresDialect()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			"no placeholders",
			"SELECT id FROM members",
			"SELECT id FROM members",
		},
		{
			"single placeholder",
			"SELECT id FROM members WHERE user_id = ?",
			"SELECT id FROM members WHERE user_id = $1",
		},
		{
			"numbered in order",
			"UPDATE members SET latitude = ?, longitude = ? WHERE id = ?",
			"UPDATE members SET latitude = $1, longitude = $2 WHERE id = $3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.RewriteQuery(tt.query); got != tt.want {
				t.Errorf("RewriteQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteQueryPassthrough(t *testing.T) {
	query := "SELECT id FROM members WHERE user_id = ?"
	if got := NewSQLiteDialect().RewriteQuery(query); got != query {
		t.Errorf("sqlite RewriteQuery() = %q, want unchanged", got)
	}
	if got := NewMySQLDialect().RewriteQuery(query); got != query {
		t.Errorf("mysql RewriteQuery() = %q, want unchanged", got)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-1, ""},
		{1, "?"},
		{3, "?,?,?"},
	}

	for _, tt := range tests {
		if got := Placeholders(tt.n); got != tt.want {
			t.Errorf("Placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestUpsertQuery(t *testing.T) {
	columns := []string{"user_id", "status", "last_seen"}
	conflict := []string{"user_id"}
	update := []string{"status", "last_seen"}

	t.Run("sqlite", func(t *testing.T) {
		got := NewSQLiteDialect().UpsertQuery("user_presence", columns, conflict, update)
		want := "INSERT INTO user_presence (user_id, status, last_seen) VALUES (?,?,?) " +
			"ON CONFLICT(user_id) DO UPDATE SET status = excluded.status, last_seen = excluded.last_seen"
		if got != want {
			t.Errorf("UpsertQuery() = %q, want %q", got, want)
		}
	})

	t.Run("postgres", func(t *testing.T) {
		got := NewPostgresDialect().UpsertQuery("user_presence", columns, conflict, update)
		want := "INSERT INTO user_presence (user_id, status, last_seen) VALUES (?,?,?) " +
			"ON CONFLICT(user_id) DO UPDATE SET status = excluded.status, last_seen = excluded.last_seen"
		if got != want {
			t.Errorf("UpsertQuery() = %q, want %q", got, want)
		}
	})

	t.Run("mysql", func(t *testing.T) {
		got := NewMySQLDialect().UpsertQuery("user_presence", columns, conflict, update)
		want := "INSERT INTO user_presence (user_id, status, last_seen) VALUES (?,?,?) " +
			"ON DUPLICATE KEY UPDATE status = VALUES(status), last_seen = VALUES(last_seen)"
		if got != want {
			t.Errorf("UpsertQuery() = %q, want %q", got, want)
		}
	})

	t.Run("composite conflict key", func(t *testing.T) {
		got := NewSQLiteDialect().UpsertQuery(
			"group_message_reads",
			[]string{"message_id", "user_id", "read_at"},
			[]string{"message_id", "user_id"},
			[]string{"read_at"},
		)
		want := "INSERT INTO group_message_reads (message_id, user_id, read_at) VALUES (?,?,?) " +
			"ON CONFLICT(message_id, user_id) DO UPDATE SET read_at = excluded.read_at"
		if got != want {
			t.Errorf("UpsertQuery() = %q, want %q", got, want)
		}
	})
}

func TestMySQLDSNAddsParseTime(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"bare url", "user:pass@tcp(db:3306)/app", "user:pass@tcp(db:3306)/app?parseTime=true"},
		{"existing params", "user:pass@tcp(db:3306)/app?tls=true", "user:pass@tcp(db:3306)/app?tls=true&parseTime=true"},
		{"already set", "user:pass@tcp(db:3306)/app?parseTime=true", "user:pass@tcp(db:3306)/app?parseTime=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DSN(DialectConfig{URL: tt.url}); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
