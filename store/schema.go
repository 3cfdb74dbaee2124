package store

// Schema is applied on every open; all statements are idempotent.
//
// Paragraphs and variables are shared entities: the same paragraph text
// (by hash) or variable (by name+kind) is stored once and linked to every
// document that contains it. Deleting a document removes its links only.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    id            TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    stored_name   TEXT NOT NULL,
    file_type     TEXT NOT NULL,
    file_size     INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    error         TEXT NOT NULL DEFAULT '',
    full_text     TEXT NOT NULL DEFAULT '',
    layout        TEXT NOT NULL DEFAULT '',
    page_count    INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents (file_type);

CREATE TABLE IF NOT EXISTS paragraphs (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT NOT NULL UNIQUE,
    text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS variables (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    UNIQUE (name, kind)
);

CREATE TABLE IF NOT EXISTS document_paragraphs (
    document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    paragraph_id INTEGER NOT NULL REFERENCES paragraphs(id),
    position     INTEGER NOT NULL,
    PRIMARY KEY (document_id, position)
);
CREATE INDEX IF NOT EXISTS idx_docpara_paragraph ON document_paragraphs (paragraph_id);

CREATE TABLE IF NOT EXISTS document_variables (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    variable_id INTEGER NOT NULL REFERENCES variables(id),
    count       INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (document_id, variable_id)
);
CREATE INDEX IF NOT EXISTS idx_docvar_variable ON document_variables (variable_id);

CREATE TABLE IF NOT EXISTS paragraph_links (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    paragraph_a INTEGER NOT NULL REFERENCES paragraphs(id),
    paragraph_b INTEGER NOT NULL REFERENCES paragraphs(id),
    score       REAL NOT NULL,
    PRIMARY KEY (document_id, paragraph_a, paragraph_b)
);
`
