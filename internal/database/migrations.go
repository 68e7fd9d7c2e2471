package database

type migration struct {
	name string
	up   []string
}

type migrationList struct {
	table string
	steps []migration
}

var dialectMigrations = map[string]migrationList{
	DriverSQLite:   {table: sqliteMigrationsTable, steps: sqliteMigrations},
	DriverPostgres: {table: postgresMigrationsTable, steps: postgresMigrations},
}

const sqliteMigrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

var sqliteMigrations = []migration{
	{
		name: "001_create_users",
		up: []string{`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
		},
	},
	{
		name: "002_create_posts",
		up: []string{`
			CREATE TABLE posts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				author_id INTEGER NOT NULL,
				created TIMESTAMP NOT NULL,
				title TEXT NOT NULL,
				body TEXT NOT NULL,
				FOREIGN KEY (author_id) REFERENCES users(id)
			)`,
			`CREATE INDEX idx_posts_created ON posts(created)`,
			`CREATE INDEX idx_posts_author_id ON posts(author_id)`,
		},
	},
	{
		name: "003_create_audit_logs",
		up: []string{`
			CREATE TABLE audit_logs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp DATETIME NOT NULL,
				user_id INTEGER,
				username TEXT,
				action TEXT NOT NULL,
				target TEXT,
				details TEXT,
				ip_address TEXT,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
			)`,
			`CREATE INDEX idx_audit_logs_timestamp ON audit_logs(timestamp)`,
			`CREATE INDEX idx_audit_logs_action ON audit_logs(action)`,
		},
	},
	{
		name: "004_create_settings",
		up: []string{`
			CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		},
	},
}

const postgresMigrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		applied_at TIMESTAMPTZ DEFAULT now()
	)
`

var postgresMigrations = []migration{
	{
		name: "001_create_users",
		up: []string{`
			CREATE TABLE users (
				id BIGSERIAL PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
		},
	},
	{
		name: "002_create_posts",
		up: []string{`
			CREATE TABLE posts (
				id BIGSERIAL PRIMARY KEY,
				author_id BIGINT NOT NULL REFERENCES users(id),
				created TIMESTAMPTZ NOT NULL,
				title TEXT NOT NULL,
				body TEXT NOT NULL
			)`,
			`CREATE INDEX idx_posts_created ON posts(created)`,
			`CREATE INDEX idx_posts_author_id ON posts(author_id)`,
		},
	},
	{
		name: "003_create_audit_logs",
		up: []string{`
			CREATE TABLE audit_logs (
				id BIGSERIAL PRIMARY KEY,
				timestamp TIMESTAMPTZ NOT NULL,
				user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
				username TEXT,
				action TEXT NOT NULL,
				target TEXT,
				details TEXT,
				ip_address TEXT
			)`,
			`CREATE INDEX idx_audit_logs_timestamp ON audit_logs(timestamp)`,
			`CREATE INDEX idx_audit_logs_action ON audit_logs(action)`,
		},
	},
	{
		name: "004_create_settings",
		up: []string{`
			CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
		},
	},
}
