package store

import (
	// register database drivers with database/sql
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

const (
	insertReadingSQL = `
	INSERT INTO data (temperature_f, pressure_psi, humidity, read_at)
	VALUES (?, ?, ?, ?)`

	insertPressureSQL = `INSERT INTO pressure (psi, read_at) VALUES (?, ?)`

	insertMessageSQL = `INSERT INTO messages (message, evt_time, msg_type) VALUES (?, ?, ?)`

	insertSchemaVersionSQL = `INSERT INTO schema_versions (version, applied_at) VALUES (?, ?)`

	selectSchemaVersionSQL = `SELECT version FROM schema_versions ORDER BY version DESC LIMIT 1`
)

// dialect holds every statement whose text differs between drivers.
type dialect struct {
	name         string
	createTables []string
	versionSQL   string
	closeSQL     string
	countSQL     map[Table]string
	pruneSQL     map[Table]string
}

var mysqlDialect = &dialect{
	name: DriverMySQL,
	createTables: []string{
		`CREATE TABLE IF NOT EXISTS schema_versions (
			version    INT PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS data (
			idx           BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			temperature_f DOUBLE NOT NULL,
			pressure_psi  DOUBLE NOT NULL,
			humidity      DOUBLE NOT NULL,
			read_at       DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pressure (
			idx     BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			psi     DOUBLE NOT NULL,
			read_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			idx      BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			message  TEXT NOT NULL,
			evt_time DATETIME NOT NULL,
			msg_type VARCHAR(8) NOT NULL
		)`,
	},
	versionSQL: `SELECT VERSION()`,
	countSQL: map[Table]string{
		TableData:     `SELECT COUNT(*) FROM data`,
		TablePressure: `SELECT COUNT(*) FROM pressure`,
		TableMessages: `SELECT COUNT(*) FROM messages`,
	},
	pruneSQL: map[Table]string{
		TableData:     `DELETE FROM data ORDER BY idx LIMIT ?`,
		TablePressure: `DELETE FROM pressure ORDER BY idx LIMIT ?`,
		TableMessages: `DELETE FROM messages ORDER BY idx LIMIT ?`,
	},
}

var sqliteDialect = &dialect{
	name: DriverSQLite,
	createTables: []string{
		`CREATE TABLE IF NOT EXISTS schema_versions (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS data (
			idx           INTEGER PRIMARY KEY AUTOINCREMENT,
			temperature_f REAL NOT NULL,
			pressure_psi  REAL NOT NULL,
			humidity      REAL NOT NULL,
			read_at       DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pressure (
			idx     INTEGER PRIMARY KEY AUTOINCREMENT,
			psi     REAL NOT NULL,
			read_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			idx      INTEGER PRIMARY KEY AUTOINCREMENT,
			message  TEXT NOT NULL,
			evt_time DATETIME NOT NULL,
			msg_type TEXT NOT NULL CHECK (msg_type IN ('INFO', 'ERROR'))
		)`,
	},
	versionSQL: `SELECT sqlite_version()`,
	closeSQL:   `PRAGMA wal_checkpoint(TRUNCATE)`,
	countSQL: map[Table]string{
		TableData:     `SELECT COUNT(*) FROM data`,
		TablePressure: `SELECT COUNT(*) FROM pressure`,
		TableMessages: `SELECT COUNT(*) FROM messages`,
	},
	// SQLite is not built with DELETE ... LIMIT by default.
	pruneSQL: map[Table]string{
		TableData:     `DELETE FROM data WHERE idx IN (SELECT idx FROM data ORDER BY idx LIMIT ?)`,
		TablePressure: `DELETE FROM pressure WHERE idx IN (SELECT idx FROM pressure ORDER BY idx LIMIT ?)`,
		TableMessages: `DELETE FROM messages WHERE idx IN (SELECT idx FROM messages ORDER BY idx LIMIT ?)`,
	},
}

func dialectFor(driver string) (*dialect, bool) {
	switch driver {
	case DriverMySQL:
		return mysqlDialect, true
	case DriverSQLite:
		return sqliteDialect, true
	default:
		return nil, false
	}
}
