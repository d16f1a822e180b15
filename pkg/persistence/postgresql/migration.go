package postgresql

// migrations returns the ordered schema migrations for the dashboard
// database. Flowchart documents keep their nested structures as JSONB; the
// persisted shape is also the wire format.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS agents (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				configuration JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_active TIMESTAMP WITH TIME ZONE NOT NULL,
				last_execution TIMESTAMP WITH TIME ZONE,
				execution_count BIGINT NOT NULL DEFAULT 0,
				created_by_id TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS idx_agents_status ON agents (status);
			CREATE INDEX IF NOT EXISTS idx_agents_category ON agents (category);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				agent_id TEXT NOT NULL,
				status TEXT NOT NULL,
				start_time TIMESTAMP WITH TIME ZONE NOT NULL,
				end_time TIMESTAMP WITH TIME ZONE,
				result TEXT NOT NULL DEFAULT '',
				error TEXT NOT NULL DEFAULT '',
				logs JSONB NOT NULL DEFAULT '[]'
			);

			CREATE INDEX IF NOT EXISTS idx_executions_agent_id ON executions (agent_id);
			CREATE INDEX IF NOT EXISTS idx_executions_status ON executions (status);
			CREATE INDEX IF NOT EXISTS idx_executions_start_time ON executions (start_time);
		`,
		3: `
			CREATE TABLE IF NOT EXISTS flowcharts (
				id TEXT PRIMARY KEY,
				agent_id TEXT NOT NULL UNIQUE,
				version TEXT NOT NULL,
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				layout JSONB NOT NULL DEFAULT '{}',
				metadata JSONB NOT NULL DEFAULT '{}',
				chronology JSONB NOT NULL DEFAULT '{}'
			);
		`,
	}
}
