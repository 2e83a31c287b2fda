package launchstore

const schema = `
CREATE TABLE IF NOT EXISTS launches (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    product_type TEXT,
    target_market TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    summary TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    launch_date TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_launches_status ON launches(status);

CREATE TABLE IF NOT EXISTS agent_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    launch_id TEXT NOT NULL REFERENCES launches(id) ON DELETE CASCADE,
    agent_name TEXT NOT NULL,
    status TEXT NOT NULL,
    output TEXT,
    error_message TEXT,
    error_flag BOOLEAN NOT NULL DEFAULT FALSE,
    timestamp TIMESTAMP NOT NULL,
    UNIQUE(launch_id, agent_name)
);

CREATE INDEX IF NOT EXISTS idx_agent_results_launch_id ON agent_results(launch_id);
`
