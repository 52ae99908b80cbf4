package supabase

import (
	"context"
	"time"

	"github.com/creastat/dialogstate/schema"
)

// Source provides service definitions kept in Supabase.
type Source interface {
	// Services retrieves every active service definition, sorted by name
	Services(ctx context.Context) ([]schema.Service, error)

	// Service retrieves one active, validated service by name
	Service(ctx context.Context, name string) (*schema.Service, error)

	// Close closes the Supabase client and releases resources
	Close() error
}

// ServiceRow represents a service definition from the database. Slots and
// intents are jsonb columns in the SGD schema layout.
type ServiceRow struct {
	ID          string          `json:"id"`
	ServiceName string          `json:"service_name"`
	Description string          `json:"description"`
	Slots       []schema.Slot   `json:"slots"`
	Intents     []schema.Intent `json:"intents"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Definition converts the row to a schema definition.
func (r ServiceRow) Definition() schema.Service {
	return schema.Service{
		Name:        r.ServiceName,
		Description: r.Description,
		Slots:       r.Slots,
		Intents:     r.Intents,
	}
}
