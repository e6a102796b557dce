package sqlstore

// Dialect holds the schema for one database/sql driver. Both supported
// drivers use "?" placeholders, so queries are shared.
type Dialect struct {
	Name   string
	Schema []string
}

var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id               TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL DEFAULT '',
			anonymous        INTEGER NOT NULL,
			turn_count       INTEGER NOT NULL DEFAULT 0,
			created_ts       INTEGER NOT NULL,
			last_activity_ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_id, last_activity_ts)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			seq             INTEGER NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_ts      INTEGER NOT NULL,
			UNIQUE (conversation_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL DEFAULT '',
			activity_type    TEXT NOT NULL,
			duration_seconds INTEGER,
			completed        INTEGER NOT NULL,
			notes            TEXT NOT NULL DEFAULT '',
			created_ts       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id, created_ts)`,
	},
}

var MySQL = Dialect{
	Name: "mysql",
	Schema: []string{
		"CREATE TABLE IF NOT EXISTS `conversations` (" +
			"`id` VARCHAR(64) NOT NULL PRIMARY KEY," +
			"`owner_id` VARCHAR(255) NOT NULL DEFAULT ''," +
			"`anonymous` TINYINT(1) NOT NULL," +
			"`turn_count` BIGINT NOT NULL DEFAULT 0," +
			"`created_ts` BIGINT NOT NULL," +
			"`last_activity_ts` BIGINT NOT NULL," +
			"INDEX `idx_conversations_owner` (`owner_id`, `last_activity_ts`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		"CREATE TABLE IF NOT EXISTS `turns` (" +
			"`id` VARCHAR(64) NOT NULL PRIMARY KEY," +
			"`conversation_id` VARCHAR(64) NOT NULL," +
			"`seq` BIGINT NOT NULL," +
			"`role` VARCHAR(16) NOT NULL," +
			"`content` LONGTEXT NOT NULL," +
			"`created_ts` BIGINT NOT NULL," +
			"UNIQUE KEY `uq_turns_conversation_seq` (`conversation_id`, `seq`)," +
			"CONSTRAINT `fk_turns_conversation` FOREIGN KEY (`conversation_id`) REFERENCES `conversations`(`id`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		"CREATE TABLE IF NOT EXISTS `activities` (" +
			"`id` VARCHAR(64) NOT NULL PRIMARY KEY," +
			"`user_id` VARCHAR(255) NOT NULL DEFAULT ''," +
			"`activity_type` VARCHAR(100) NOT NULL," +
			"`duration_seconds` INT NULL," +
			"`completed` TINYINT(1) NOT NULL," +
			"`notes` TEXT NOT NULL," +
			"`created_ts` BIGINT NOT NULL," +
			"INDEX `idx_activities_user` (`user_id`, `created_ts`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
}
