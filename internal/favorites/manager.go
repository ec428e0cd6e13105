package favorites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrNotFound is returned when no favorite has the given name
var ErrNotFound = errors.New("favorite not found")

// Favorite is a named, saved request
type Favorite struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Request     models.DataRequest `yaml:"request"`
	Tags        []string           `yaml:"tags,omitempty"`
	CreatedAt   time.Time          `yaml:"created_at"`
	UpdatedAt   time.Time          `yaml:"updated_at"`
	UsageCount  int                `yaml:"usage_count"`
	LastUsed    time.Time          `yaml:"last_used,omitempty"`
}

// Manager manages saved requests
type Manager struct {
	path      string
	favorites []Favorite
}

// NewManager creates a new favorites manager
func NewManager(configDir string) (*Manager, error) {
	path := filepath.Join(configDir, "favorites.yaml")

	m := &Manager{
		path:      path,
		favorites: []Favorite{},
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
	}

	return m, nil
}

// Load loads favorites from YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read favorites file: %w", err)
	}

	if err := yaml.Unmarshal(data, &m.favorites); err != nil {
		return fmt.Errorf("failed to parse favorites: %w", err)
	}

	return nil
}

// Save saves favorites to YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.favorites)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}

	return nil
}

// Add saves req under name. Names are unique, ignoring case.
func (m *Manager) Add(name, description string, req models.DataRequest, tags []string) (*Favorite, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("favorite name cannot be empty")
	}
	if _, ok := m.find(name); ok {
		return nil, fmt.Errorf("a favorite with the name '%s' already exists (names are case-insensitive)", name)
	}

	now := time.Now()
	favorite := Favorite{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Request:     req,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.favorites = append(m.favorites, favorite)

	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}

	return &favorite, nil
}

// Update replaces the request of an existing favorite
func (m *Manager) Update(name string, req models.DataRequest) error {
	i, ok := m.find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.favorites[i].Request = req
	m.favorites[i].UpdatedAt = time.Now()
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite by name
func (m *Manager) Delete(name string) error {
	i, ok := m.find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save favorites after deletion: %w", err)
	}
	return nil
}

// Get returns a favorite by name
func (m *Manager) Get(name string) (*Favorite, error) {
	i, ok := m.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	fav := m.favorites[i]
	return &fav, nil
}

// GetAll returns all favorites
func (m *Manager) GetAll() []Favorite {
	return m.favorites
}

// Search searches favorites by name, description, or tags
func (m *Manager) Search(query string) []Favorite {
	if query == "" {
		return m.favorites
	}

	query = strings.ToLower(query)
	var results []Favorite

	for _, fav := range m.favorites {
		if strings.Contains(strings.ToLower(fav.Name), query) ||
			strings.Contains(strings.ToLower(fav.Description), query) {
			results = append(results, fav)
			continue
		}

		for _, tag := range fav.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, fav)
				break
			}
		}
	}

	return results
}

// RecordUsage updates usage statistics for a favorite
func (m *Manager) RecordUsage(name string) error {
	i, ok := m.find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.favorites[i].UsageCount++
	m.favorites[i].LastUsed = time.Now()
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save usage statistics: %w", err)
	}
	return nil
}

// GetMostUsed returns the most frequently used favorites
func (m *Manager) GetMostUsed(limit int) []Favorite {
	sorted := make([]Favorite, len(m.favorites))
	copy(sorted, m.favorites)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}

func (m *Manager) find(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, fav := range m.favorites {
		if strings.EqualFold(fav.Name, name) {
			return i, true
		}
	}
	return -1, false
}
