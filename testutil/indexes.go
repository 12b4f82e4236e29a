package testutil

import (
	"log/slog"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/index"
	"github.com/binquery/binq/types"
)

// IndexCache builds a cache pre-populated with descriptors, bypassing the
// info channel.
func IndexCache(c client.Client, descriptors ...types.IndexDescriptor) *index.Cache {
	cache := index.NewCache(c, slog.Default())
	cache.Replace(descriptors)
	return cache
}

// StringIndex is a shorthand descriptor for a scalar string index.
func StringIndex(name, namespace, set, bin string, ratio float64) types.IndexDescriptor {
	return types.IndexDescriptor{
		Name:      name,
		Namespace: namespace,
		Set:       set,
		Bin:       bin,
		Type:      types.IndexString,
		Ratio:     ratio,
	}
}

// NumericIndex is a shorthand descriptor for a scalar numeric index.
func NumericIndex(name, namespace, set, bin string, ratio float64) types.IndexDescriptor {
	return types.IndexDescriptor{
		Name:      name,
		Namespace: namespace,
		Set:       set,
		Bin:       bin,
		Type:      types.IndexNumeric,
		Ratio:     ratio,
	}
}
