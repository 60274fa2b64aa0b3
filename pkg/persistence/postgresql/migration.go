package postgresql

// migrations returns the ordered schema migrations for the PostgreSQL
// persistence layer.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS flows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'draft',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				flow_id TEXT NOT NULL,
				contact_id TEXT NOT NULL,
				channel_instance_id TEXT NOT NULL DEFAULT '',
				current_node_id TEXT NOT NULL DEFAULT '',
				variables JSONB NOT NULL DEFAULT '{}',
				internal JSONB NOT NULL DEFAULT '{}',
				status TEXT NOT NULL DEFAULT 'active',
				processing BOOLEAN NOT NULL DEFAULT FALSE,
				processing_started_at TIMESTAMP WITH TIME ZONE,
				timeout_at TIMESTAMP WITH TIME ZONE,
				last_interaction TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_sessions_contact
				ON sessions (contact_id, channel_instance_id)
				WHERE status = 'active';

			CREATE TABLE IF NOT EXISTS timers (
				session_id TEXT PRIMARY KEY,
				run_at TIMESTAMP WITH TIME ZONE NOT NULL,
				reason TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'scheduled',
				attempts INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_timers_due
				ON timers (run_at)
				WHERE status = 'scheduled';

			CREATE TABLE IF NOT EXISTS inbound_messages (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				contact_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				text TEXT NOT NULL DEFAULT '',
				media_ref TEXT NOT NULL DEFAULT '',
				received_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_inbound_messages_session
				ON inbound_messages (session_id, received_at);

			CREATE TABLE IF NOT EXISTS contacts (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL,
				tags JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS channel_instances (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'connected',
				last_error TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
