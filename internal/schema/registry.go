package schema

import "fmt"

// Scale is the number of decimal places used by a scaled integer.
// Example: Scale=8 means the integer value is scaled by 1e8.
type Scale int32

// ScaleSpec defines scaling for common numeric fields.
type ScaleSpec struct {
	PriceScale    Scale `json:"priceScale"`
	QuantityScale Scale `json:"quantityScale"`
	NotionalScale Scale `json:"notionalScale"`
}

// SymbolID is the numeric identifier for a symbol.
type SymbolID uint32

// Symbol describes a tradable instrument.
type Symbol struct {
	ID    SymbolID
	Name  string
	Scale ScaleSpec
}

// Registry stores symbol mappings in a compact form.
type Registry struct {
	symbols      []Symbol
	symbolByName map[string]SymbolID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{symbolByName: make(map[string]SymbolID)}
}

// AddSymbol registers a new symbol and returns its ID.
func (r *Registry) AddSymbol(name string, scale ScaleSpec) (SymbolID, error) {
	if name == "" {
		return 0, fmt.Errorf("symbol name is empty")
	}
	if id, ok := r.symbolByName[name]; ok {
		return id, fmt.Errorf("symbol already exists: %s", name)
	}
	id := SymbolID(len(r.symbols) + 1)
	r.symbols = append(r.symbols, Symbol{ID: id, Name: name, Scale: scale})
	r.symbolByName[name] = id
	return id, nil
}

// Symbol returns the symbol by ID.
func (r *Registry) Symbol(id SymbolID) (Symbol, bool) {
	if id == 0 || int(id) > len(r.symbols) {
		return Symbol{}, false
	}
	return r.symbols[id-1], true
}

// SymbolIDByName returns the symbol ID for a name.
func (r *Registry) SymbolIDByName(name string) (SymbolID, bool) {
	id, ok := r.symbolByName[name]
	return id, ok
}

// SymbolCount returns the number of symbols in the registry.
func (r *Registry) SymbolCount() int {
	return len(r.symbols)
}
