package storage

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"blockpage/internal/domain"
)

// ConnConfig describes how to reach the backend holding pages and blocks.
// Path is used by sqlite only; the network fields by postgres and mysql.
type ConnConfig struct {
	Driver   domain.DatabaseDriver
	Path     string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// dialect captures the per-backend differences in SQL text and transaction
// setup. Queries are written with ? placeholders and rebound on postgres.
type dialect struct {
	driver     domain.DatabaseDriver
	sqlDriver  string
	migrations []string
	// createPage inserts (slug, title, created_at, updated_at) unless the slug exists.
	createPage string
	// returningID is true when INSERT ... RETURNING id must replace LastInsertId.
	returningID bool
	txOptions   *sql.TxOptions
	maxConns    int
}

func dialectFor(driver domain.DatabaseDriver) (dialect, error) {
	switch driver {
	case domain.DatabaseDriverSQLite, "":
		return dialect{
			driver:     domain.DatabaseDriverSQLite,
			sqlDriver:  "sqlite",
			migrations: sqliteMigrations,
			createPage: `INSERT INTO pages (slug, title, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(slug) DO NOTHING`,
			// SQLite only supports one writer, so a single connection serializes every transaction.
			maxConns: 1,
		}, nil
	case domain.DatabaseDriverPostgres:
		return dialect{
			driver:      driver,
			sqlDriver:   "postgres",
			migrations:  postgresMigrations,
			createPage:  `INSERT INTO pages (slug, title, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (slug) DO NOTHING`,
			returningID: true,
			txOptions:   &sql.TxOptions{Isolation: sql.LevelSerializable},
			maxConns:    10,
		}, nil
	case domain.DatabaseDriverMySQL:
		return dialect{
			driver:     driver,
			sqlDriver:  "mysql",
			migrations: mysqlMigrations,
			createPage: `INSERT IGNORE INTO pages (slug, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			txOptions:  &sql.TxOptions{Isolation: sql.LevelSerializable},
			maxConns:   10,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// dsn builds the driver-specific connection string.
func (d dialect) dsn(cfg ConnConfig) string {
	switch d.driver {
	case domain.DatabaseDriverPostgres:
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
			Path:     "/" + cfg.Name,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return u.String()
	case domain.DatabaseDriverMySQL:
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Name
		// ParseTime lets timestamps scan into time.Time; ClientFoundRows makes
		// RowsAffected count matched rows, not changed ones.
		mc.ParseTime = true
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		if cfg.SSLMode == "require" {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN()
	default:
		return cfg.Path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
}

// rebind rewrites ? placeholders into $1, $2, ... for postgres.
func (d dialect) rebind(query string) string {
	if d.driver != domain.DatabaseDriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_slug_idx ON pages(slug)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('text', 'image')),
		position INTEGER NOT NULL,
		text TEXT,
		text_style TEXT CHECK (text_style IN ('h1', 'h2', 'h3', 'p')),
		image_src TEXT,
		image_width INTEGER,
		image_height INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS blocks_page_id_idx ON blocks(page_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS blocks_page_position_idx ON blocks(page_id, position)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		slug VARCHAR(128) NOT NULL,
		title VARCHAR(256) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pages_slug_idx ON pages(slug)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		page_id BIGINT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL CHECK (kind IN ('text', 'image')),
		position BIGINT NOT NULL,
		text TEXT,
		text_style VARCHAR(8) CHECK (text_style IN ('h1', 'h2', 'h3', 'p')),
		image_src TEXT,
		image_width INTEGER,
		image_height INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS blocks_page_id_idx ON blocks(page_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS blocks_page_position_idx ON blocks(page_id, position)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes live in the table definitions.
var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		slug VARCHAR(128) NOT NULL,
		title VARCHAR(256) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY pages_slug_idx (slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		page_id BIGINT NOT NULL,
		kind ENUM('text', 'image') NOT NULL,
		position BIGINT NOT NULL,
		text TEXT,
		text_style ENUM('h1', 'h2', 'h3', 'p'),
		image_src TEXT,
		image_width INT,
		image_height INT,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY blocks_page_id_idx (page_id),
		UNIQUE KEY blocks_page_position_idx (page_id, position),
		CONSTRAINT blocks_page_fk FOREIGN KEY (page_id) REFERENCES pages(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
