package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidItemSpec is returned when an ItemSpec can be resolved by neither
// the catalog nor as a user-defined item.
var ErrInvalidItemSpec = errors.New("inventory: invalid item spec")

// ItemSpec describes an item to grant: either a catalog id, or an ad hoc
// user-defined item.
type ItemSpec struct {
	ID          string     `json:"id,omitempty" yaml:"id"`
	Name        string     `json:"name,omitempty" yaml:"name"`
	Type        ItemType   `json:"type,omitempty" yaml:"type"`
	Rarity      Rarity     `json:"rarity,omitempty" yaml:"rarity"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Quantity    int        `json:"quantity,omitempty" yaml:"quantity"`
	Stats       *StatBonus `json:"stats,omitempty" yaml:"stats"`
}

// SpecFor returns the ItemSpec that reproduces stack.
func SpecFor(stack ItemStack) ItemSpec {
	return ItemSpec{
		ID:          stack.ID,
		Name:        stack.Name,
		Type:        stack.Type,
		Rarity:      stack.Rarity,
		Description: stack.Description,
		Quantity:    stack.Quantity,
		Stats:       stack.Stats.clone(),
	}
}

// Factory resolves item specs into concrete stacks.
type Factory interface {
	Resolve(spec ItemSpec) (ItemStack, error)
}

// CatalogFactory resolves specs whose id is in the catalog from the catalog
// entry, and everything else as a user-defined item.
type CatalogFactory struct {
	catalog *Catalog
	newID   func() string
}

// NewFactory returns a CatalogFactory over catalog.
//
// Precondition: catalog must be non-nil.
func NewFactory(catalog *Catalog) *CatalogFactory {
	return &CatalogFactory{
		catalog: catalog,
		newID:   func() string { return "custom-" + uuid.NewString() },
	}
}

// Resolve turns spec into a stack of spec.Quantity units (at least 1).
//
// Postcondition: catalog-backed specs take every field from the catalog entry;
// user-defined specs without an id receive a fresh "custom-" id and default to
// a Common Material.
func (f *CatalogFactory) Resolve(spec ItemSpec) (ItemStack, error) {
	qty := max(spec.Quantity, 1)
	if spec.ID != "" {
		if def, ok := f.catalog.Item(spec.ID); ok {
			return def.Stack(qty), nil
		}
	}
	return f.custom(spec, qty)
}

func (f *CatalogFactory) custom(spec ItemSpec, qty int) (ItemStack, error) {
	if spec.Name == "" {
		if spec.ID != "" {
			return ItemStack{}, fmt.Errorf("%w: %q", ErrItemNotFound, spec.ID)
		}
		return ItemStack{}, fmt.Errorf("%w: user-defined item needs a name", ErrInvalidItemSpec)
	}
	id := spec.ID
	if id == "" {
		id = f.newID()
	}
	typ := spec.Type
	if typ == "" {
		typ = TypeMaterial
	}
	if !typ.Valid() {
		return ItemStack{}, fmt.Errorf("%w: type %q", ErrInvalidItemSpec, spec.Type)
	}
	rarity := spec.Rarity
	if rarity == "" {
		rarity = RarityCommon
	}
	if !rarity.Valid() {
		return ItemStack{}, fmt.Errorf("%w: rarity %q", ErrInvalidItemSpec, spec.Rarity)
	}
	return ItemStack{
		ID:          id,
		Name:        spec.Name,
		Type:        typ,
		Rarity:      rarity,
		Description: spec.Description,
		Quantity:    qty,
		Stats:       spec.Stats.clone(),
	}, nil
}
