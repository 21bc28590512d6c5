package rangefs

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
)

// -----------------------------------------------------------------------------
// Catalog
// -----------------------------------------------------------------------------

// Catalog is the result of one enumeration pass.
//
// Containers and their objects keep the order the store returned them. The
// catalog owns its descriptors; handles derived from it copy what they need.
type Catalog struct {
	// Backend names the transport that produced the catalog.
	Backend string `json:"backend"`

	// Containers lists every enumerated container.
	Containers []Container `json:"containers"`

	index btree.Map[string, objectRef]
}

// objectRef locates an object inside Catalog.Containers.
type objectRef struct {
	container int
	object    int
}

func newCatalog(backend string, containers []Container) *Catalog {
	c := &Catalog{Backend: backend, Containers: containers}
	c.reindex()
	return c
}

// reindex rebuilds the lookup index from Containers.
func (c *Catalog) reindex() {
	c.index = btree.Map[string, objectRef]{}
	for ci, container := range c.Containers {
		for oi, obj := range container.Objects {
			c.index.Set(indexKey(container.Name, obj.Key), objectRef{container: ci, object: oi})
		}
	}
}

// UnmarshalJSON decodes a catalog and indexes it.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var wire struct {
		Backend    string      `json:"backend"`
		Containers []Container `json:"containers"`
	}
	if err := jsonCodec.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Backend, c.Containers = wire.Backend, wire.Containers
	c.reindex()
	return nil
}

func indexKey(container, key string) string {
	return container + "\x00" + key
}

// ObjectCount returns the number of objects across all containers.
func (c *Catalog) ObjectCount() int {
	n := 0
	for _, container := range c.Containers {
		n += len(container.Objects)
	}
	return n
}

// Handles returns one handle per object, in catalog order.
func (c *Catalog) Handles() []Handle {
	handles := make([]Handle, 0, c.ObjectCount())
	for _, container := range c.Containers {
		for _, obj := range container.Objects {
			handles = append(handles, NewHandle(c.Backend, container.Name, obj))
		}
	}
	return handles
}

// Lookup returns the handle for key in container. It does not modify the
// catalog and is safe for concurrent use.
func (c *Catalog) Lookup(container, key string) (Handle, bool) {
	ref, ok := c.index.Get(indexKey(container, key))
	if !ok && c.index.Len() == 0 {
		// Catalogs assembled by hand carry no index.
		ref, ok = c.scan(container, key)
	}
	if !ok {
		return Handle{}, false
	}
	cont := c.Containers[ref.container]
	return NewHandle(c.Backend, cont.Name, cont.Objects[ref.object]), true
}

func (c *Catalog) scan(container, key string) (objectRef, bool) {
	for ci, cont := range c.Containers {
		if cont.Name != container {
			continue
		}
		for oi, obj := range cont.Objects {
			if obj.Key == key {
				return objectRef{container: ci, object: oi}, true
			}
		}
	}
	return objectRef{}, false
}

// -----------------------------------------------------------------------------
// CatalogBuilder
// -----------------------------------------------------------------------------

// CatalogBuilder enumerates a store into a Catalog.
type CatalogBuilder struct {
	transport  Transport
	log        zerolog.Logger
	containers []string
}

// NewCatalogBuilder creates a builder over t.
func NewCatalogBuilder(t Transport, opts ...CatalogOption) (*CatalogBuilder, error) {
	if t == nil {
		return nil, errors.New("rangefs: transport is required")
	}

	cfg := &catalogConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return &CatalogBuilder{
		transport:  t,
		log:        cfg.logger,
		containers: cfg.containers,
	}, nil
}

// Enumerate lists every container and its objects.
//
// Enumeration is all-or-nothing: if listing the containers fails the error
// matches ErrConnection, and if listing any container's objects fails the
// error matches ErrEnumeration. No partial catalog is returned in either case.
// Callers needing partial results should enumerate containers individually
// with WithContainers.
func (b *CatalogBuilder) Enumerate(ctx context.Context) (*Catalog, error) {
	names := b.containers
	if len(names) == 0 {
		listed, err := b.transport.ListContainers(ctx)
		if err != nil {
			return nil, newError("enumerate", ErrConnection, "", "", err)
		}
		names = listed
	}

	containers := make([]Container, 0, len(names))
	for _, name := range names {
		objects, err := b.transport.ListObjects(ctx, name)
		if err != nil {
			b.log.Error().Err(err).Str("container", name).Msg("listing failed, discarding catalog")
			return nil, newError("enumerate", ErrEnumeration, name, "", err)
		}
		b.log.Debug().Str("container", name).Int("objects", len(objects)).Msg("container listed")
		containers = append(containers, Container{Name: name, Objects: objects})
	}

	catalog := newCatalog(b.transport.Name(), containers)
	b.log.Info().
		Str("backend", catalog.Backend).
		Int("containers", len(catalog.Containers)).
		Int("objects", catalog.ObjectCount()).
		Msg("enumeration complete")
	return catalog, nil
}
