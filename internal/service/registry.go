package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/FileMaster/internal/types"
)

var (
	ErrEmptyServiceID  = errors.New("service ID cannot be empty")
	ErrDuplicateTool   = errors.New("tool already registered")
	ErrInvalidToolID   = errors.New("invalid tool ID format")
	ErrServiceNotFound = errors.New("service not found")
	ErrToolNotFound    = errors.New("tool not found")
)

// Registry manages service discovery and execution
type Registry struct {
	services sync.Map
	mu       sync.RWMutex
	// tools maps bare tool names to qualified tool IDs.
	tools map[string]string
}

// Provider interface for service implementations
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error)
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]string)}
}

// Register adds a service provider. Bare tool names must be unique across
// providers.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return ErrEmptyServiceID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range def.Tools {
		if owner, ok := r.tools[tool.Name]; ok && owner != tool.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
		}
	}
	for _, tool := range def.Tools {
		r.tools[tool.Name] = tool.ID
	}

	r.services.Store(def.ID, provider)
	return nil
}

// Unregister removes a service provider
func (r *Registry) Unregister(serviceID string) {
	val, ok := r.services.LoadAndDelete(serviceID)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range val.(Provider).Definition().Tools {
		delete(r.tools, tool.Name)
	}
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all registered services sorted by ID
func (r *Registry) List(category *types.Category) []types.Service {
	var services []types.Service
	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Tools returns every registered tool sorted by name
func (r *Registry) Tools() []types.Tool {
	var tools []types.Tool
	for _, svc := range r.List(nil) {
		tools = append(tools, svc.Tools...)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Discover finds relevant services for a given intent
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	intentLower := strings.ToLower(intent)
	var results []scoredService

	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		score := r.calculateRelevance(intentLower, def)
		if score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	// Sort by score descending
	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Resolve maps a bare tool name or a qualified tool ID to the owning
// provider and the qualified ID.
func (r *Registry) Resolve(toolID string) (Provider, string, error) {
	if !strings.Contains(toolID, ".") {
		r.mu.RLock()
		qualified, ok := r.tools[toolID]
		r.mu.RUnlock()
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrToolNotFound, toolID)
		}
		toolID = qualified
	}

	parts := strings.SplitN(toolID, ".", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidToolID, toolID)
	}

	provider, ok := r.Get(parts[0])
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrServiceNotFound, parts[0])
	}
	return provider, toolID, nil
}

// Execute runs a service tool. A returned error means the call never
// reached a tool; tool failures are reported in the Result.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error) {
	provider, qualified, err := r.Resolve(toolID)
	if err != nil {
		msg := err.Error()
		return &types.Result{Success: false, Error: &msg}, err
	}
	return provider.Execute(ctx, qualified, params, appCtx)
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]any {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value any) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]any{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func (r *Registry) calculateRelevance(intent string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(intent, service.ID) || strings.Contains(intent, strings.ToLower(service.Name)) {
		score += 10.0
	}

	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 3 && strings.Contains(intent, word) {
			score += 5.0
		}
	}

	for _, cap := range service.Capabilities {
		capClean := strings.ReplaceAll(strings.ToLower(cap), "_", " ")
		if strings.Contains(intent, capClean) {
			score += 3.0
		}
	}

	// Tool names count once each
	for _, tool := range service.Tools {
		if strings.Contains(intent, strings.ReplaceAll(tool.Name, "_", " ")) {
			score += 4.0
		}
	}

	if strings.Contains(intent, string(service.Category)) {
		score += 2.0
	}

	return score
}
