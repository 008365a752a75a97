package db

import "fmt"

// schemaSQL returns the schema initialization SQL. The HNSW index dimension
// is parameterized because it must match the configured embedding model.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- PASSAGE TABLE (scripture corpus, populated offline by ingest)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS passage SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS source_title ON passage TYPE string;
    DEFINE FIELD IF NOT EXISTS canonical_ref ON passage TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON passage TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON passage TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created ON passage TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS passage_ref ON passage FIELDS canonical_ref;
    DEFINE INDEX IF NOT EXISTS passage_embedding ON passage FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- PROFILE TABLE (one ConversationContext per user, TTL-expirable)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS profile SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON profile TYPE string;
    DEFINE FIELD IF NOT EXISTS history ON profile FLEXIBLE TYPE array DEFAULT [];
    DEFINE FIELD IF NOT EXISTS last_level ON profile TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS last_type ON profile TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS last_strategy ON profile TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS updated ON profile TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS expires ON profile TYPE datetime;

    DEFINE INDEX IF NOT EXISTS profile_user ON profile FIELDS user_id UNIQUE;
`, dimension)
}
