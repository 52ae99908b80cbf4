// Package schema holds the service definitions a dialogue is tracked
// against: intents, slots and categorical value sets. A Registry is built
// once with Load and is read-only afterwards, so it can be shared freely
// between goroutines.
package schema

import (
	"fmt"
	"sort"

	dst "github.com/creastat/dialogstate"
)

// Service is one domain (e.g. restaurant booking) with its own intents and slots.
type Service struct {
	Name        string   `yaml:"service_name" json:"service_name"`
	Description string   `yaml:"description" json:"description"`
	Slots       []Slot   `yaml:"slots" json:"slots"`
	Intents     []Intent `yaml:"intents" json:"intents"`

	slotIndex   map[string]int
	intentIndex map[string]int
}

// Slot is a named attribute to fill. Categorical slots draw from Values; for
// non-categorical slots Values is an optional canonical vocabulary used only
// when comparing values.
type Slot struct {
	Name          string   `yaml:"name" json:"name"`
	Description   string   `yaml:"description" json:"description"`
	IsCategorical bool     `yaml:"is_categorical" json:"is_categorical"`
	Values        []string `yaml:"possible_values" json:"possible_values"`
}

// Intent is a user goal within a service.
type Intent struct {
	Name            string            `yaml:"name" json:"name"`
	Description     string            `yaml:"description" json:"description"`
	IsTransactional bool              `yaml:"is_transactional" json:"is_transactional"`
	RequiredSlots   []string          `yaml:"required_slots" json:"required_slots"`
	OptionalSlots   map[string]string `yaml:"optional_slots" json:"optional_slots"`
}

// Registry indexes services by name.
type Registry struct {
	services map[string]*Service
	names    []string
}

// Load validates defs and builds a Registry. Services are copied, so later
// changes to defs do not leak into the registry.
func Load(defs []Service) (*Registry, error) {
	r := &Registry{services: make(map[string]*Service, len(defs))}

	for i := range defs {
		svc, err := index(defs[i])
		if err != nil {
			return nil, err
		}
		if _, dup := r.services[svc.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate service %q", dst.ErrSchema, svc.Name)
		}
		r.services[svc.Name] = svc
		r.names = append(r.names, svc.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

func index(def Service) (*Service, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: service name is required", dst.ErrSchema)
	}

	svc := &Service{
		Name:        def.Name,
		Description: def.Description,
		Slots:       make([]Slot, len(def.Slots)),
		Intents:     make([]Intent, len(def.Intents)),
		slotIndex:   make(map[string]int, len(def.Slots)),
		intentIndex: make(map[string]int, len(def.Intents)),
	}

	for i, slot := range def.Slots {
		if slot.Name == "" {
			return nil, fmt.Errorf("%w: service %q: slot %d has no name", dst.ErrSchema, def.Name, i)
		}
		if _, dup := svc.slotIndex[slot.Name]; dup {
			return nil, fmt.Errorf("%w: service %q: duplicate slot %q", dst.ErrSchema, def.Name, slot.Name)
		}
		if slot.IsCategorical && len(slot.Values) == 0 {
			return nil, fmt.Errorf("%w: service %q: categorical slot %q has no values", dst.ErrSchema, def.Name, slot.Name)
		}
		seen := make(map[string]struct{}, len(slot.Values))
		for _, v := range slot.Values {
			if _, dup := seen[v]; dup {
				return nil, fmt.Errorf("%w: service %q: slot %q repeats value %q", dst.ErrSchema, def.Name, slot.Name, v)
			}
			seen[v] = struct{}{}
		}

		slot.Values = append([]string(nil), slot.Values...)
		svc.Slots[i] = slot
		svc.slotIndex[slot.Name] = i
	}

	for i, intent := range def.Intents {
		if intent.Name == "" {
			return nil, fmt.Errorf("%w: service %q: intent %d has no name", dst.ErrSchema, def.Name, i)
		}
		if _, dup := svc.intentIndex[intent.Name]; dup {
			return nil, fmt.Errorf("%w: service %q: duplicate intent %q", dst.ErrSchema, def.Name, intent.Name)
		}
		for _, name := range intent.RequiredSlots {
			if _, ok := svc.slotIndex[name]; !ok {
				return nil, fmt.Errorf("%w: service %q: intent %q requires unknown slot %q", dst.ErrSchema, def.Name, intent.Name, name)
			}
		}
		optional := make(map[string]string, len(intent.OptionalSlots))
		for name, dflt := range intent.OptionalSlots {
			if _, ok := svc.slotIndex[name]; !ok {
				return nil, fmt.Errorf("%w: service %q: intent %q has unknown optional slot %q", dst.ErrSchema, def.Name, intent.Name, name)
			}
			optional[name] = dflt
		}

		intent.RequiredSlots = append([]string(nil), intent.RequiredSlots...)
		intent.OptionalSlots = optional
		svc.Intents[i] = intent
		svc.intentIndex[intent.Name] = i
	}

	return svc, nil
}

// Services returns the registered service names in sorted order.
func (r *Registry) Services() []string {
	return append([]string(nil), r.names...)
}

// Service returns the named service or an error wrapping ErrNotFound.
func (r *Registry) Service(name string) (*Service, error) {
	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dst.ErrNotFound, name)
	}
	return svc, nil
}

// IsCategorical reports whether service.slot draws from a fixed value set.
func (r *Registry) IsCategorical(service, slot string) (bool, error) {
	s, err := r.slot(service, slot)
	if err != nil {
		return false, err
	}
	return s.IsCategorical, nil
}

// CategoricalValues returns the ordered value set of a categorical slot.
func (r *Registry) CategoricalValues(service, slot string) ([]string, error) {
	s, err := r.slot(service, slot)
	if err != nil {
		return nil, err
	}
	if !s.IsCategorical {
		return nil, fmt.Errorf("%w: %s.%s is not categorical", dst.ErrInvalidSlot, service, slot)
	}
	return append([]string(nil), s.Values...), nil
}

func (r *Registry) slot(service, slot string) (*Slot, error) {
	svc, err := r.Service(service)
	if err != nil {
		return nil, err
	}
	s, ok := svc.Slot(slot)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", dst.ErrInvalidSlot, service, slot)
	}
	return s, nil
}

// Slot looks a slot up by name.
func (s *Service) Slot(name string) (*Slot, bool) {
	i, ok := s.slotIndex[name]
	if !ok {
		return nil, false
	}
	return &s.Slots[i], true
}

// Intent looks an intent up by name.
func (s *Service) Intent(name string) (*Intent, bool) {
	i, ok := s.intentIndex[name]
	if !ok {
		return nil, false
	}
	return &s.Intents[i], true
}

// CategoricalSlots returns the categorical slots in declaration order.
func (s *Service) CategoricalSlots() []Slot {
	var out []Slot
	for _, slot := range s.Slots {
		if slot.IsCategorical {
			out = append(out, slot)
		}
	}
	return out
}

// NonCategoricalSlots returns the free-text slots in declaration order.
func (s *Service) NonCategoricalSlots() []Slot {
	var out []Slot
	for _, slot := range s.Slots {
		if !slot.IsCategorical {
			out = append(out, slot)
		}
	}
	return out
}
