// Package phonebook implements the durable directory of canonical merchant
// entities and their aliases. It is the single source of truth for merchant
// identity: a normalized alias maps to at most one entity, ever.
package phonebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/quillfin/quill/internal/common"
	"github.com/quillfin/quill/internal/model"
)

// Config holds construction options for the phonebook.
type Config struct {
	// Path is the location of the entities JSON file. The parent
	// directory is created if missing.
	Path string
}

// Phonebook is the in-memory directory backed by a flat JSON record set
// keyed by entity id. Mutations are written through to disk before they
// are considered committed.
type Phonebook struct {
	entities   map[string]*model.Entity
	aliasIndex map[string]string // normalized alias -> entity id
	path       string
	mu         sync.RWMutex
}

// New loads the phonebook from disk. A missing file yields an empty
// directory; an unreadable or unparsable file is fatal rather than
// silently empty.
func New(cfg Config) (*Phonebook, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: phonebook path is required", common.ErrInvalidConfig)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create phonebook directory: %w", err)
	}

	p := &Phonebook{
		entities:   make(map[string]*model.Entity),
		aliasIndex: make(map[string]string),
		path:       cfg.Path,
	}

	if err := p.load(); err != nil {
		return nil, err
	}

	return p, nil
}

// load reads the whole record set from disk and rebuilds the alias index.
func (p *Phonebook) load() error {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		common.LogInfo("No phonebook found, starting fresh", common.Fields{"path": p.path})
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPhonebookCorrupt, err)
	}

	var records map[string]*model.Entity
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPhonebookCorrupt, err)
	}

	for id, entity := range records {
		if entity == nil || entity.CanonicalName == "" || len(entity.Aliases) == 0 {
			return fmt.Errorf("%w: entity %q missing canonical name or aliases", common.ErrPhonebookCorrupt, id)
		}
		p.entities[id] = entity
		for _, alias := range entity.Aliases {
			p.aliasIndex[alias] = id
		}
	}

	common.LogInfo("Phonebook loaded", common.Fields{
		"path":     p.path,
		"entities": len(p.entities),
	})
	return nil
}

// save writes the whole record set through an atomic rename so partial
// writes never reach the live file.
func (p *Phonebook) save() error {
	data, err := json.MarshalIndent(p.entities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode phonebook: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write phonebook: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to commit phonebook: %w", err)
	}
	return nil
}

// Normalize maps a raw alias string to its canonical lookup form:
// lowercased, trimmed, with runs of whitespace and punctuation collapsed
// to single spaces. It is total and deterministic.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// FindByAlias returns the entity owning the normalized form of token.
func (p *Phonebook) FindByAlias(token string) (*model.Entity, bool) {
	normalized := Normalize(token)
	if normalized == "" {
		return nil, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.aliasIndex[normalized]
	if !ok {
		return nil, false
	}
	entity := p.entities[id]
	cp := *entity
	cp.Aliases = append([]string(nil), entity.Aliases...)
	return &cp, true
}

// Register creates or links an entity for the given alias.
//
// If canonicalName matches an existing entity, the alias is added to it.
// If the normalized alias already belongs to a different entity the call
// fails with ErrAliasConflict and the existing mapping is unchanged.
// Registering the same (alias, canonicalName) pair twice is a no-op.
// The mutation is durably written before Register returns.
func (p *Phonebook) Register(alias, canonicalName, category string) (*model.Entity, error) {
	canonicalName = strings.TrimSpace(canonicalName)
	if canonicalName == "" {
		return nil, fmt.Errorf("canonical name cannot be empty")
	}
	if category == "" {
		category = model.UnknownCategory
	}

	normalized := Normalize(alias)
	if normalized == "" {
		normalized = Normalize(canonicalName)
	}
	if normalized == "" {
		return nil, fmt.Errorf("alias %q normalizes to nothing", alias)
	}

	id := model.Slug(canonicalName)
	canonicalAlias := Normalize(canonicalName)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ownerID, taken := p.aliasIndex[normalized]; taken && ownerID != id {
		owner := p.entities[ownerID]
		return nil, fmt.Errorf("%w: %q is owned by %q", common.ErrAliasConflict, normalized, owner.CanonicalName)
	}

	now := time.Now().UTC()
	entity, exists := p.entities[id]
	var prevAliases []string
	var prevUpdated time.Time
	if exists {
		prevAliases = append([]string(nil), entity.Aliases...)
		prevUpdated = entity.UpdatedAt
	}
	if !exists {
		entity = &model.Entity{
			ID:              id,
			CanonicalName:   canonicalName,
			DefaultCategory: category,
			CreatedAt:       now,
		}
		p.entities[id] = entity
	}

	changed := !exists
	var added []string
	for _, a := range []string{canonicalAlias, normalized} {
		if a == "" || entity.HasAlias(a) {
			continue
		}
		if ownerID, taken := p.aliasIndex[a]; taken && ownerID != id {
			// The canonical alias may legitimately collide when linking a new
			// alias to a name spelled like another entity's alias; the explicit
			// alias conflict check above already passed.
			continue
		}
		entity.Aliases = append(entity.Aliases, a)
		p.aliasIndex[a] = id
		added = append(added, a)
		changed = true
	}

	if !changed {
		cp := *entity
		cp.Aliases = append([]string(nil), entity.Aliases...)
		return &cp, nil
	}

	entity.UpdatedAt = now
	if err := p.save(); err != nil {
		// The mutation is only committed once it is durable; restore the
		// in-memory state so later lookups cannot observe it.
		for _, a := range added {
			delete(p.aliasIndex, a)
		}
		if exists {
			entity.Aliases = prevAliases
			entity.UpdatedAt = prevUpdated
		} else {
			delete(p.entities, id)
		}
		return nil, err
	}

	slog.Info("Registered entity alias",
		"entity", entity.CanonicalName,
		"alias", normalized,
		"category", entity.DefaultCategory,
		"new_entity", !exists)

	cp := *entity
	cp.Aliases = append([]string(nil), entity.Aliases...)
	return &cp, nil
}

// AllEntities returns a deterministic snapshot of every entity, sorted by
// canonical name.
func (p *Phonebook) AllEntities() []model.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entities := make([]model.Entity, 0, len(p.entities))
	for _, e := range p.entities {
		cp := *e
		cp.Aliases = append([]string(nil), e.Aliases...)
		entities = append(entities, cp)
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].CanonicalName < entities[j].CanonicalName
	})

	return entities
}

// Aliases returns a deterministic snapshot of the flattened alias index.
func (p *Phonebook) Aliases() []model.AliasEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]model.AliasEntry, 0, len(p.aliasIndex))
	for alias, id := range p.aliasIndex {
		entries = append(entries, model.AliasEntry{Alias: alias, EntityID: id})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Alias != entries[j].Alias {
			return entries[i].Alias < entries[j].Alias
		}
		return entries[i].EntityID < entries[j].EntityID
	})

	return entries
}

// Len returns the number of entities in the directory.
func (p *Phonebook) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entities)
}
