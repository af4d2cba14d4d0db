package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/lotledger/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the SQLite database and ensures the input tables (securities,
// trades, lot_actions, tax_config) and output tables (lots_current,
// lot_consumes, gains_realized, tax_summary_fy) exist. Output tables are
// only ever rewritten inside a rebuild's publish transaction.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTradesTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS securities (
		security_id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		country TEXT,
		ticker TEXT,
		trading_currency TEXT
	);

	CREATE TABLE IF NOT EXISTS trades (
		trade_id TEXT PRIMARY KEY,
		trade_date TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		broker_id TEXT,
		account_id TEXT,
		security_id TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		fx_rate_to_inr TEXT NOT NULL,
		FOREIGN KEY(security_id) REFERENCES securities(security_id)
	);

	CREATE TABLE IF NOT EXISTS lot_actions (
		action_id TEXT PRIMARY KEY,
		action_date TEXT NOT NULL,
		action_type TEXT NOT NULL,
		owner_from_id TEXT,
		owner_to_id TEXT,
		broker_from_id TEXT,
		broker_to_id TEXT,
		account_from_id TEXT,
		account_to_id TEXT,
		security_id TEXT NOT NULL,
		security_to_id TEXT,
		split_numerator TEXT,
		split_denominator TEXT,
		quantity TEXT
	);

	CREATE TABLE IF NOT EXISTS tax_config (
		asset_class TEXT PRIMARY KEY,
		holding_period_lt_days INTEGER NOT NULL,
		ltcg_rate TEXT NOT NULL,
		stcg_rate TEXT NOT NULL,
		ltcg_exemption_inr TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lots_current (
		lot_id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		security_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		open_qty TEXT NOT NULL,
		cost_native TEXT NOT NULL,
		cost_per_share TEXT NOT NULL,
		cost_inr TEXT NOT NULL,
		fx_rate_at_buy TEXT NOT NULL,
		broker_id TEXT,
		account_id TEXT
	);

	CREATE TABLE IF NOT EXISTS lot_consumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		lot_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		security_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		quantity TEXT NOT NULL,
		cost_native TEXT NOT NULL,
		cost_inr TEXT NOT NULL,
		sale_price TEXT NOT NULL,
		fx_rate_at_sale TEXT NOT NULL,
		proceeds_native TEXT NOT NULL,
		proceeds_inr TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gains_realized (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id TEXT NOT NULL,
		lot_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		security_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		holding_days INTEGER NOT NULL,
		term TEXT NOT NULL,
		fiscal_year TEXT NOT NULL,
		quantity TEXT NOT NULL,
		cost_native TEXT NOT NULL,
		proceeds_native TEXT NOT NULL,
		gain_native TEXT NOT NULL,
		cost_inr TEXT NOT NULL,
		proceeds_inr TEXT NOT NULL,
		gain_inr TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tax_summary_fy (
		fiscal_year TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		long_term_gain_inr TEXT NOT NULL,
		short_term_gain_inr TEXT NOT NULL,
		taxable_long_term_inr TEXT NOT NULL,
		ltcg_tax_inr TEXT NOT NULL,
		stcg_tax_inr TEXT NOT NULL,
		total_tax_inr TEXT NOT NULL,
		PRIMARY KEY(fiscal_year, asset_class)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateTradesTable backfills columns added after the first release.
func migrateTradesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='trades'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'trades' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'trades' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'trades' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'trades' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(trades)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'trades'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'trades': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'trades'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'trades': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'trades'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'trades': %v", err)
		}
		return
	}

	if _, ok := columnExists["broker_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE trades ADD COLUMN broker_id TEXT")
		if err != nil {
			logger.L.Error("Error adding 'broker_id' column to 'trades' table", "error", err)
		} else {
			logger.L.Info("Added 'broker_id' column to 'trades' table")
		}
	}
	if _, ok := columnExists["account_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE trades ADD COLUMN account_id TEXT")
		if err != nil {
			logger.L.Error("Error adding 'account_id' column to 'trades' table", "error", err)
		} else {
			logger.L.Info("Added 'account_id' column to 'trades' table")
		}
	}
	if _, ok := columnExists["fx_rate_to_inr"]; !ok {
		_, err := DB.Exec("ALTER TABLE trades ADD COLUMN fx_rate_to_inr TEXT NOT NULL DEFAULT '1'")
		if err != nil {
			logger.L.Error("Error adding 'fx_rate_to_inr' column to 'trades' table", "error", err)
		} else {
			logger.L.Info("Added 'fx_rate_to_inr' column to 'trades' table")
		}
	}
}
