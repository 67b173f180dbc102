package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/quillfin/quill/internal/common"
	"github.com/quillfin/quill/internal/config"
	"github.com/quillfin/quill/internal/embedding"
	"github.com/quillfin/quill/internal/engine"
	"github.com/quillfin/quill/internal/phonebook"
	"github.com/quillfin/quill/internal/resolver"
	"github.com/quillfin/quill/internal/rules"
	"github.com/quillfin/quill/internal/storage"
	"github.com/quillfin/quill/internal/tokenizer"
	"github.com/quillfin/quill/internal/vectorcache"
)

// initStorage opens the SQLite store and applies migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/quill/quill.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open the database at %s", dbPath), err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// initPhonebook loads the entity directory from its JSON file.
func initPhonebook() (*phonebook.Phonebook, error) {
	path := viper.GetString("phonebook.path")
	if path == "" {
		path = "$HOME/.local/share/quill/entities.json"
	}
	path = config.ExpandPath(path)
	book, err := phonebook.New(phonebook.Config{Path: path})
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not load the phonebook at %s", path), err)
	}
	return book, nil
}

// buildEngine wires the full categorization pipeline. The prompter is
// nil in deferred mode; pending rows then park in a session.
func buildEngine(ctx context.Context, store *storage.SQLiteStore, book *phonebook.Phonebook, prompter engine.Prompter, cfg engine.Config) (*engine.Engine, error) {
	tok, err := tokenizer.NewClient(config.LoadTokenizerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer: %w", err)
	}

	emb, err := embedding.NewClient(config.LoadEmbeddingConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build embedder: %w", err)
	}

	deps := engine.Deps{
		Directory: book,
		Resolver:  resolver.New(book),
		Tokenizer: tok,
		Sessions:  store,
		Results:   store,
		Prompter:  prompter,
	}

	if emb != nil {
		cache, cacheErr := vectorcache.New(ctx, store)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to load vector cache: %w", cacheErr)
		}
		deps.Embedder = emb
		deps.Cache = cache
	}

	ruleset, err := rules.NewMatcher(rules.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("failed to compile context rules: %w", err)
	}
	deps.Rules = ruleset

	return engine.New(deps, cfg)
}
