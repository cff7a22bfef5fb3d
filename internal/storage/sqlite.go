package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matsen/litrev/internal/record"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding a review corpus.
type DB struct {
	db *sql.DB
}

// Article is one row of the corpus.
type Article struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Year     string `json:"year,omitempty"`
	DOI      string `json:"doi,omitempty"`
	Journal  string `json:"journal,omitempty"`
	Type     string `json:"type,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Source   string `json:"source,omitempty"`
}

// selectArticleFields contains the standard field list for SELECT queries.
const selectArticleFields = `a.id, a.title, a.year, a.doi, a.journal, a.type, a.abstract, a.keywords, a.source`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			year TEXT,
			doi TEXT,
			journal TEXT,
			type TEXT,
			abstract TEXT,
			keywords TEXT,
			source TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi IS NOT NULL;

		-- Full-text search, rowid = articles.id
		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			title,
			abstract,
			keywords
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Load replaces the corpus with the rows of t. Columns the table lacks are
// stored as NULL. Returns the number of rows loaded.
func (d *DB) Load(t record.Table, source string) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles"); err != nil {
		return 0, fmt.Errorf("clearing articles table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM articles_fts"); err != nil {
		return 0, fmt.Errorf("clearing articles_fts table: %w", err)
	}

	articleStmt, err := tx.Prepare(`
		INSERT INTO articles (id, title, year, doi, journal, type, abstract, keywords, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing articles insert: %w", err)
	}
	defer articleStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO articles_fts (rowid, title, abstract, keywords) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	cols := t.Select(record.Columns...)
	n := cols.Len()
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		title := cols.Column(record.FieldTitle)[i]
		abstract := cols.Column(record.FieldAbstract)[i]
		keywords := cols.Column(record.FieldKeywords)[i]

		_, err := articleStmt.Exec(
			id, record.Value(title),
			nullable(cols.Column(record.FieldYear)[i]),
			nullable(cols.Column(record.FieldDOI)[i]),
			nullable(cols.Column(record.FieldJournal)[i]),
			nullable(cols.Column(record.FieldType)[i]),
			nullable(abstract), nullable(keywords),
			nullableStringValue(source),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i+1, err)
		}

		if _, err := ftsStmt.Exec(id, record.Value(title), record.Value(abstract), record.Value(keywords)); err != nil {
			return 0, fmt.Errorf("inserting fts for row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing corpus: %w", err)
	}
	return n, nil
}

// Search performs a full-text search over titles, abstracts and keywords,
// best matches first.
func (d *DB) Search(query string, limit int) ([]Article, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, fmt.Errorf("empty search query")
	}

	rows, err := d.db.Query(`
		SELECT `+selectArticleFields+`
		FROM articles a
		JOIN (SELECT rowid, rank FROM articles_fts WHERE articles_fts MATCH ?) f ON a.id = f.rowid
		ORDER BY f.rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// FindByDOI returns the articles with the given DOI.
func (d *DB) FindByDOI(doi string) ([]Article, error) {
	rows, err := d.db.Query(`SELECT `+selectArticleFields+` FROM articles a WHERE a.doi = ? ORDER BY a.id`, doi)
	if err != nil {
		return nil, fmt.Errorf("looking up doi: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Count returns the total number of articles.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var year, doi, journal, typ, abstract, keywords, source sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &year, &doi, &journal, &typ, &abstract, &keywords, &source); err != nil {
			return nil, err
		}
		a.Year = year.String
		a.DOI = doi.String
		a.Journal = journal.String
		a.Type = typ.String
		a.Abstract = abstract.String
		a.Keywords = keywords.String
		a.Source = source.String
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// nullable converts an optional cell to sql.NullString.
func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns each word into a quoted prefix term, so all words
// must appear as token prefixes. Queries containing FTS5 syntax characters
// are matched as a single phrase.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	words := strings.Fields(query)
	for i, w := range words {
		words[i] = "\"" + w + "\"*"
	}
	return strings.Join(words, " ")
}
