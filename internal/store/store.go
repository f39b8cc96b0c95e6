// Package store is the single owner of the persisted roster, active profile,
// word bank and colour scheme. Reads never fail: absent or unreadable values
// fall back to the seeded defaults.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/models"
	"vocabhero/internal/storage"
)

const (
	KeyActiveProfile = "vocabHero_activeProfile"
	KeyProfiles      = "vocabHero_profiles"
	KeyWordBank      = "vocabHero_wordBank"
	KeyColorScheme   = "vocabHero_colorScheme"
)

// Keys lists every key the store owns
var Keys = []string{KeyProfiles, KeyActiveProfile, KeyWordBank, KeyColorScheme}

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrWordNotFound    = errors.New("word not found")

	ErrDuplicateProfileID = errors.New("duplicate profile id")
)

type Store struct {
	backend storage.Backend
	log     *zap.Logger
	now     func() time.Time

	// mu serialises every write so read-modify-write helpers see the latest copy
	mu     sync.Mutex
	events broker
}

func New(backend storage.Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log, now: time.Now}
}

// LoadRoster returns the persisted roster, or the seeded default roster
func (s *Store) LoadRoster(ctx context.Context) []models.Profile {
	var roster []models.Profile
	if !s.readJSON(ctx, KeyProfiles, &roster) || len(roster) == 0 {
		return DefaultRoster()
	}

	seen := make(map[string]bool, len(roster))
	cleaned := roster[:0]
	for _, p := range roster {
		if p.ID == "" || seen[p.ID] {
			s.log.Warn("dropping profile with missing or duplicate id", zap.String("id", p.ID))
			continue
		}
		seen[p.ID] = true
		p.Normalize()
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		return DefaultRoster()
	}
	return cleaned
}

// LoadActiveProfile returns the roster entry matching the persisted active
// snapshot, falling back to the first roster entry
func (s *Store) LoadActiveProfile(ctx context.Context) models.Profile {
	roster := s.LoadRoster(ctx)
	return resolveActive(roster, s.activeID(ctx))
}

// SaveRoster overwrites the roster and re-derives the active snapshot
func (s *Store) SaveRoster(ctx context.Context, roster []models.Profile) error {
	return s.commit(func() error {
		return s.saveRosterLocked(ctx, roster, s.activeID(ctx))
	}, RosterChanged, ProfileChanged)
}

// SetActiveProfile switches the active profile. An id absent from the
// roster resolves to the first entry.
func (s *Store) SetActiveProfile(ctx context.Context, id string) error {
	return s.commit(func() error {
		return s.saveRosterLocked(ctx, s.LoadRoster(ctx), id)
	}, ProfileChanged)
}

// UpdateRoster reloads the roster, applies fn and saves the result. fn may
// also return a new active id; an empty id keeps the current one.
func (s *Store) UpdateRoster(ctx context.Context, fn func(roster []models.Profile, activeID string) ([]models.Profile, string, error)) error {
	return s.commit(func() error {
		roster := s.LoadRoster(ctx)
		current := resolveActive(roster, s.activeID(ctx)).ID

		next, nextActive, err := fn(roster, current)
		if err != nil {
			return err
		}
		if nextActive == "" {
			nextActive = current
		}
		return s.saveRosterLocked(ctx, next, nextActive)
	}, RosterChanged, ProfileChanged)
}

// UpdateProfile applies fn to a single roster entry
func (s *Store) UpdateProfile(ctx context.Context, id string, fn func(p *models.Profile) error) (models.Profile, error) {
	var updated models.Profile
	err := s.UpdateRoster(ctx, func(roster []models.Profile, activeID string) ([]models.Profile, string, error) {
		for i := range roster {
			if roster[i].ID == id {
				if err := fn(&roster[i]); err != nil {
					return nil, "", err
				}
				updated = roster[i]
				return roster, activeID, nil
			}
		}
		return nil, "", ErrProfileNotFound
	})
	return updated, err
}

// NotifyProfileChanged re-broadcasts a profile change without writing
func (s *Store) NotifyProfileChanged() {
	s.publish(ProfileChanged)
}

// LoadWordBank returns the shared word bank, seeding defaults on first use
func (s *Store) LoadWordBank(ctx context.Context) []models.Word {
	var bank []models.Word
	ok := s.readJSON(ctx, KeyWordBank, &bank)
	if !ok {
		bank = DefaultWordBank()
		s.mu.Lock()
		if err := s.writeJSON(ctx, KeyWordBank, bank); err != nil {
			s.log.Warn("failed to persist seeded word bank", zap.Error(err))
		}
		s.mu.Unlock()
		return bank
	}
	for i := range bank {
		bank[i].Normalize()
	}
	if bank == nil {
		bank = []models.Word{}
	}
	return bank
}

// SaveWordBank overwrites the shared word bank
func (s *Store) SaveWordBank(ctx context.Context, bank []models.Word) error {
	return s.commit(func() error {
		return s.writeJSON(ctx, KeyWordBank, bank)
	}, WordBankChanged)
}

// UpdateWordBank reloads the bank, applies fn and saves the result
func (s *Store) UpdateWordBank(ctx context.Context, fn func(bank []models.Word) ([]models.Word, error)) error {
	return s.commit(func() error {
		next, err := fn(s.loadWordBankLocked(ctx))
		if err != nil {
			return err
		}
		return s.writeJSON(ctx, KeyWordBank, next)
	}, WordBankChanged)
}

// UpdateWord applies fn to one word of the bank
func (s *Store) UpdateWord(ctx context.Context, id string, fn func(w *models.Word) error) (models.Word, error) {
	var updated models.Word
	err := s.UpdateWordBank(ctx, func(bank []models.Word) ([]models.Word, error) {
		for i := range bank {
			if bank[i].ID == id {
				if err := fn(&bank[i]); err != nil {
					return nil, err
				}
				bank[i].Normalize()
				updated = bank[i]
				return bank, nil
			}
		}
		return nil, ErrWordNotFound
	})
	return updated, err
}

// LoadColorScheme returns the selected scheme name or the default
func (s *Store) LoadColorScheme(ctx context.Context) string {
	v, ok, err := s.backend.Get(ctx, KeyColorScheme)
	if err != nil {
		s.log.Warn("failed to read colour scheme", zap.Error(err))
		return models.DefaultColorScheme
	}
	if _, known := models.LookupColorScheme(v); !ok || !known {
		return models.DefaultColorScheme
	}
	return v
}

// SaveColorScheme stores the scheme name as a plain string
func (s *Store) SaveColorScheme(ctx context.Context, name string) error {
	return s.commit(func() error {
		if err := s.backend.Set(ctx, KeyColorScheme, name); err != nil {
			return fmt.Errorf("failed to save colour scheme: %w", err)
		}
		return nil
	}, SettingsChanged)
}

// Export returns the raw persisted value of every store key present
func (s *Store) Export(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	out := make(map[string]string, len(Keys))
	for _, k := range present {
		if !isStoreKey(k) {
			continue
		}
		v, ok, err := s.backend.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", k, err)
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// Import replaces the store with values in one write. Store keys missing
// from values are removed so they fall back to their defaults. Unknown
// keys and unreadable values are rejected before anything is written.
func (s *Store) Import(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		if err := validateValue(k, v); err != nil {
			return err
		}
	}

	return s.commit(func() error {
		if err := s.backend.SetMany(ctx, values); err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}
		present, err := s.backend.Keys(ctx)
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		for _, k := range present {
			if _, keep := values[k]; keep || !isStoreKey(k) {
				continue
			}
			if err := s.backend.Delete(ctx, k); err != nil {
				return fmt.Errorf("failed to clear %s: %w", k, err)
			}
		}
		return nil
	}, RosterChanged, ProfileChanged, WordBankChanged, SettingsChanged)
}

// validateValue checks that v is something the store could have written under k
func validateValue(k, v string) error {
	var err error
	switch k {
	case KeyProfiles:
		var roster []models.Profile
		if err = json.Unmarshal([]byte(v), &roster); err == nil {
			err = checkRoster(roster)
		}
	case KeyActiveProfile:
		var p models.Profile
		err = json.Unmarshal([]byte(v), &p)
	case KeyWordBank:
		var bank []models.Word
		err = json.Unmarshal([]byte(v), &bank)
	case KeyColorScheme:
		if _, ok := models.LookupColorScheme(v); !ok {
			err = fmt.Errorf("unknown colour scheme %q", v)
		}
	default:
		return fmt.Errorf("unknown store key %q", k)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", k, err)
	}
	return nil
}

// checkRoster enforces a non-empty roster of unique, non-empty ids
func checkRoster(roster []models.Profile) error {
	if len(roster) == 0 {
		return errors.New("roster must contain at least one profile")
	}
	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.ID == "" {
			return errors.New("profile id is required")
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateProfileID, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// commit runs fn under the write lock and publishes kinds once it succeeds
func (s *Store) commit(fn func() error, kinds ...EventKind) error {
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(kinds...)
	return nil
}

func (s *Store) saveRosterLocked(ctx context.Context, roster []models.Profile, activeID string) error {
	if err := checkRoster(roster); err != nil {
		return err
	}
	active := resolveActive(roster, activeID)

	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	activeJSON, err := json.Marshal(active)
	if err != nil {
		return fmt.Errorf("failed to encode active profile: %w", err)
	}

	err = s.backend.SetMany(ctx, map[string]string{
		KeyProfiles:      string(rosterJSON),
		KeyActiveProfile: string(activeJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

func (s *Store) loadWordBankLocked(ctx context.Context) []models.Word {
	var bank []models.Word
	if !s.readJSON(ctx, KeyWordBank, &bank) {
		return DefaultWordBank()
	}
	for i := range bank {
		bank[i].Normalize()
	}
	return bank
}

// activeID reads the id out of the active profile snapshot
func (s *Store) activeID(ctx context.Context) string {
	var snapshot struct {
		ID string `json:"id"`
	}
	if !s.readJSON(ctx, KeyActiveProfile, &snapshot) {
		return ""
	}
	return snapshot.ID
}

// readJSON decodes key into dst and reports whether a usable value was found
func (s *Store) readJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn("failed to read store key", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn("ignoring unreadable store value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func resolveActive(roster []models.Profile, id string) models.Profile {
	for _, p := range roster {
		if p.ID == id {
			return p
		}
	}
	return roster[0]
}

func isStoreKey(k string) bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}
