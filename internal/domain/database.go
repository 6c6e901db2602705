package domain

// DatabaseDriver names the relational backend holding pages and blocks.
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
)

func (d DatabaseDriver) Valid() bool {
	switch d {
	case DatabaseDriverSQLite, DatabaseDriverPostgres, DatabaseDriverMySQL:
		return true
	}
	return false
}
