package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"

	"streamvol/internal/domain"
	"streamvol/internal/logging"
)

// PolicyFile implements domain.PolicyRepository using a YAML file.
// This is a secondary adapter.
type PolicyFile struct {
	path            string
	defaultCategory domain.DeviceCategory
	mu              sync.Mutex
}

// NewPolicyFile creates a policy repository backed by path. defaultCategory
// is used unless the document names its own.
func NewPolicyFile(path string, defaultCategory domain.DeviceCategory) (*PolicyFile, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if !defaultCategory.Valid() {
		return nil, fmt.Errorf("%w: default category %s", domain.ErrInvalidArgument, defaultCategory)
	}
	return &PolicyFile{path: path, defaultCategory: defaultCategory}, nil
}

// Path returns the backing file path.
func (f *PolicyFile) Path() string { return f.path }

// policyDocument represents the YAML structure on disk.
type policyDocument struct {
	DefaultCategory string           `yaml:"default_category,omitempty"`
	Streams         []streamDocument `yaml:"streams"`
}

type streamDocument struct {
	Name     string                         `yaml:"name"`
	Type     string                         `yaml:"type"`
	Strategy string                         `yaml:"strategy,omitempty"`
	IndexMin int                            `yaml:"index_min"`
	IndexMax int                            `yaml:"index_max"`
	Curves   map[string][]domain.CurvePoint `yaml:"curves"`
}

// Load reads the policy and returns a frozen stream table. A missing file
// yields the built-in default policy.
func (f *PolicyFile) Load() (*domain.StreamTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Infof("policy file %s not found, using built-in policy", f.path)
			return domain.NewPolicyTable(domain.DefaultPolicy(), f.defaultCategory)
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var doc policyDocument
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", err)
	}
	return f.build(doc)
}

func (f *PolicyFile) build(doc policyDocument) (*domain.StreamTable, error) {
	category := f.defaultCategory
	if doc.DefaultCategory != "" {
		c, err := domain.ParseDeviceCategory(doc.DefaultCategory)
		if err != nil {
			return nil, fmt.Errorf("policy %s: default_category: %w", f.path, err)
		}
		category = c
	}
	if len(doc.Streams) == 0 {
		return nil, fmt.Errorf("%w: policy %s defines no streams", domain.ErrInvalidArgument, f.path)
	}

	configs := make([]domain.StreamConfig, 0, len(doc.Streams))
	for i, sd := range doc.Streams {
		cfg, err := sd.toConfig()
		if err != nil {
			return nil, fmt.Errorf("policy %s: stream #%d (%s): %w", f.path, i, sd.Name, err)
		}
		configs = append(configs, cfg)
	}

	table, err := domain.NewPolicyTable(configs, category)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", f.path, err)
	}
	logging.Debugf("loaded %d streams from %s", table.Len(), f.path)
	return table, nil
}

func (sd streamDocument) toConfig() (domain.StreamConfig, error) {
	cfg := domain.StreamConfig{
		Name:     sd.Name,
		Strategy: domain.StrategyMedia,
		IndexMin: sd.IndexMin,
		IndexMax: sd.IndexMax,
		Curves:   make(map[domain.DeviceCategory]domain.CurvePoints, len(sd.Curves)),
	}
	st, err := domain.ParseStreamType(sd.Type)
	if err != nil {
		return cfg, err
	}
	cfg.Type = st
	if sd.Strategy != "" {
		if cfg.Strategy, err = domain.ParseRoutingStrategy(sd.Strategy); err != nil {
			return cfg, err
		}
	}
	for name, points := range sd.Curves {
		c, err := domain.ParseDeviceCategory(name)
		if err != nil {
			return cfg, err
		}
		cfg.Curves[c] = points
	}
	return cfg, nil
}

// Save persists the table to disk.
func (f *PolicyFile) Save(table *domain.StreamTable) error {
	if table == nil {
		return fmt.Errorf("%w: nil stream table", domain.ErrInvalidArgument)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc := policyDocument{DefaultCategory: table.DefaultCategory().String()}
	for _, cfg := range table.Configs() {
		sd := streamDocument{
			Name:     cfg.Name,
			Type:     cfg.Type.String(),
			Strategy: cfg.Strategy.String(),
			IndexMin: cfg.IndexMin,
			IndexMax: cfg.IndexMax,
			Curves:   make(map[string][]domain.CurvePoint, len(cfg.Curves)),
		}
		for c, points := range cfg.Curves {
			sd.Curves[c.String()] = points
		}
		doc.Streams = append(doc.Streams, sd)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}
	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}
