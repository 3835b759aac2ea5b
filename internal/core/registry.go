package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[Variant]MappingDefinition)
	registryMu sync.RWMutex
)

// Register adds a mapping definition to the registry.
// Panics if the variant is unknown, already registered, or its keyword is taken.
func Register(def MappingDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Info.Variant == VariantUnknown {
		panic("cannot register a mapping for VariantUnknown")
	}
	if _, exists := registry[def.Info.Variant]; exists {
		panic(fmt.Sprintf("mapping already registered: %s", def.Info.Variant))
	}
	if def.Info.Keyword == "" || def.BuildRecord == nil {
		panic(fmt.Sprintf("incomplete mapping definition: %s", def.Info.Variant))
	}
	for _, other := range registry {
		if strings.EqualFold(other.Info.Keyword, def.Info.Keyword) {
			panic(fmt.Sprintf("keyword %q already registered by %s", def.Info.Keyword, other.Info.Variant))
		}
	}

	registry[def.Info.Variant] = def
}

// Get returns a mapping definition by variant.
// Returns false if not found.
func Get(v Variant) (MappingDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[v]
	return def, ok
}

// All returns all registered definitions in variant order.
func All() []MappingDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]MappingDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Variant < result[j].Info.Variant
	})

	return result
}

// Classify selects the variant for a dataset logical name by keyword
// substring, checking definitions in variant order. Names matching no
// keyword are VariantUnknown.
func Classify(name string) Variant {
	lower := strings.ToLower(name)
	for _, def := range All() {
		if strings.Contains(lower, strings.ToLower(def.Info.Keyword)) {
			return def.Info.Variant
		}
	}
	return VariantUnknown
}

// PartitionFor returns the destination partition of a variant.
func PartitionFor(v Variant) (Partition, bool) {
	def, ok := Get(v)
	if !ok {
		return 0, false
	}
	return def.Info.Partition, true
}

// VariantCount returns the number of registered variants.
func VariantCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered definitions.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Variant]MappingDefinition)
}
