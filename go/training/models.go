package training

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ModelConfig is a saved architecture: a named, dataset-bound layer list
// a client can POST once and later start (and restart) training against
// without resending the full layer list.
type ModelConfig struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	DatasetID string      `json:"dataset_id"`
	Layers    []LayerSpec `json:"layers"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// ModelRegistry is the in-memory store of saved model configurations.
// It has no relation to a live TrainingSession; StartTraining reads a
// config and takes its own, independent copy of the layer list.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]ModelConfig
	clock  func() time.Time
	store  SessionStore
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		models: make(map[string]ModelConfig),
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// SetStore attaches an optional write-through persistence layer.
func (r *ModelRegistry) SetStore(store SessionStore) {
	r.store = store
}

func (r *ModelRegistry) Create(name, datasetID string, layers []LayerSpec) ModelConfig {
	r.mu.Lock()
	cfg := ModelConfig{
		ID:        uuid.NewString(),
		Name:      name,
		DatasetID: datasetID,
		Layers:    layers,
		Status:    "created",
		CreatedAt: r.clock(),
	}
	r.models[cfg.ID] = cfg
	store := r.store
	r.mu.Unlock()

	if store != nil {
		_ = store.SaveModelConfig(cfg.ID, cfg.Name, cfg.DatasetID, "", cfg.Layers, cfg.Status)
	}
	return cfg
}

func (r *ModelRegistry) Get(id string) (ModelConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.models[id]
	return cfg, ok
}

func (r *ModelRegistry) SetStatus(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.models[id]; ok {
		cfg.Status = status
		r.models[id] = cfg
	}
}
