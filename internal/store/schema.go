package store

const schema = `
CREATE TABLE IF NOT EXISTS appids (
    app_id TEXT PRIMARY KEY,
    game_name TEXT,
    date_added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    is_installed BOOLEAN DEFAULT 1
);

CREATE TABLE IF NOT EXISTS depots (
    depot_id TEXT PRIMARY KEY,
    app_id TEXT NOT NULL,
    decryption_key TEXT,
    date_added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (app_id) REFERENCES appids (app_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS manifests (
    app_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    date_added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (app_id, filename),
    FOREIGN KEY (app_id) REFERENCES appids (app_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_depots_app_id ON depots (app_id);
CREATE INDEX IF NOT EXISTS idx_appids_installed ON appids (is_installed);
CREATE INDEX IF NOT EXISTS idx_manifests_app_id ON manifests (app_id);
`
