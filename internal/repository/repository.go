package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/psvit/storefront/internal/domain"
)

// SlotSchemaVersion is the current version of the persisted cart envelope.
// A slot written with a different version is treated as empty on load.
const SlotSchemaVersion = 1

// SnapshotSlot persists a single cart snapshot. Load returns a nil
// snapshot and nil error when nothing has been saved yet.
type SnapshotSlot interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
	Clear(ctx context.Context) error
}

// ProductRepository is the catalog read and write surface. Implementations
// return apperrors.NotFound when a product does not exist.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// slotEnvelope is the wire format shared by all slot implementations.
type slotEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	Items         domain.Snapshot `json:"items"`
}

// EncodeSlot serializes a snapshot into the versioned envelope.
func EncodeSlot(snap domain.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	data, err := json.Marshal(slotEnvelope{
		SchemaVersion: SlotSchemaVersion,
		Items:         snap,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding cart slot: %w", err)
	}
	return data, nil
}

// DecodeSlot parses an envelope back into a snapshot. It returns an error
// for malformed JSON or a schema version other than the current one;
// callers decide whether to treat that as an empty cart.
func DecodeSlot(data []byte) (domain.Snapshot, error) {
	var env slotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding cart slot: %w", err)
	}
	if env.SchemaVersion != SlotSchemaVersion {
		return nil, fmt.Errorf("cart slot schema version %d is not supported", env.SchemaVersion)
	}
	if env.Items == nil {
		return domain.Snapshot{}, nil
	}
	return env.Items, nil
}
