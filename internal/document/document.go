// Package document owns a decoded save document and its entity registry.
//
// A save is a root object with a "currentID" reference and a "gamestates"
// object mapping group names to entity lists. Each entity is
// {"Key": {"value": id}, "Value": {...properties...}}, and IDs are unique
// across the whole document. Load validates that structure up front and
// builds the registry (ID → group, position); after that, lookups and
// single-property writes run against the in-memory tree without
// re-validating.
//
// A Document is not safe for concurrent use. Callers serialize mutation
// and serialization themselves.
package document

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
	"github.com/mmr-tortoise/tise/internal/reference"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// Document-level keys and defaults.
const (
	// KeyCurrentID holds the next allocatable entity ID.
	KeyCurrentID = "currentID"

	// KeyGameStates holds the groups.
	KeyGameStates = "gamestates"

	// KeyEntityID and KeyEntityProps are the two fields of a list entry.
	KeyEntityID    = "Key"
	KeyEntityProps = "Value"

	// DefaultNamespace is the prefix carried by stored group names.
	DefaultNamespace = "PavonisInteractive.TerraInvicta."

	// UnknownSentinel is displayed for unresolvable or unnamed entities.
	UnknownSentinel = "<?~?~?>"
)

// DefaultDisplayNameKeys are tried in order when naming an entity.
var DefaultDisplayNameKeys = []string{"displayName", "name", "eventName"}

type options struct {
	logger          *log.Logger
	namespace       string
	displayNameKeys []string
	unknown         string
	rules           property.Rules
}

// Option customises a Document.
type Option func(*options)

// WithLogger sets the logger for non-fatal warnings (unresolved references,
// property type changes). The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNamespace overrides the group-name prefix.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithDisplayNameKeys overrides the properties tried for display names.
func WithDisplayNameKeys(keys ...string) Option {
	return func(o *options) {
		if len(keys) > 0 {
			o.displayNameKeys = keys
		}
	}
}

// WithUnknownSentinel overrides the text shown for unknown entities.
func WithUnknownSentinel(s string) Option {
	return func(o *options) {
		if s != "" {
			o.unknown = s
		}
	}
}

// WithRules overrides the property classification rules.
func WithRules(r property.Rules) Option {
	return func(o *options) { o.rules = r }
}

// Document is a loaded save with its registry.
type Document struct {
	root     *savejson.Object
	states   *savejson.Object
	registry map[int64]model.Location
	opts     options
	dirty    bool
}

// Load decodes raw and validates it. Any structural violation aborts the
// load with an error wrapping model.ErrMalformedDocument that names the
// offending group and index; no partial document is returned.
func Load(raw []byte, opts ...Option) (*Document, error) {
	tree, err := savejson.Parse(raw)
	if err != nil {
		return nil, model.Malformed("", -1, "invalid JSON: %v", err)
	}
	return New(tree, opts...)
}

// New validates an already decoded tree and builds its registry.
// The tree is adopted, not copied.
func New(tree any, opts ...Option) (*Document, error) {
	o := options{
		logger:          log.New(io.Discard),
		namespace:       DefaultNamespace,
		displayNameKeys: DefaultDisplayNameKeys,
		unknown:         UnknownSentinel,
		rules:           property.DefaultRules(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Step 1: Check the root shape.
	root, ok := tree.(*savejson.Object)
	if !ok {
		return nil, model.Malformed("", -1, "root is a JSON %s, expected an object", savejson.KindOf(tree))
	}
	current, ok := root.Get(KeyCurrentID)
	if !ok {
		return nil, model.Malformed("", -1, "missing %q", KeyCurrentID)
	}
	if !reference.Is(current) {
		return nil, model.Malformed("", -1, "%q is not a reference", KeyCurrentID)
	}
	rawStates, ok := root.Get(KeyGameStates)
	if !ok {
		return nil, model.Malformed("", -1, "missing %q", KeyGameStates)
	}
	states, ok := rawStates.(*savejson.Object)
	if !ok {
		return nil, model.Malformed("", -1, "%q is a JSON %s, expected an object", KeyGameStates, savejson.KindOf(rawStates))
	}

	d := &Document{
		root:     root,
		states:   states,
		registry: make(map[int64]model.Location),
		opts:     o,
	}

	// Step 2: Walk every group and entity, registering IDs.
	for i := 0; i < states.Len(); i++ {
		group, rawList := states.At(i)
		if err := d.register(group, rawList); err != nil {
			return nil, err
		}
	}

	o.logger.Debug("document loaded", "groups", states.Len(), "entities", len(d.registry))
	return d, nil
}

func (d *Document) register(group string, rawList any) error {
	// A group the game has nothing to store for may be null.
	if rawList == nil {
		return nil
	}
	list, ok := rawList.([]any)
	if !ok {
		return model.Malformed(group, -1, "group is a JSON %s, expected a list", savejson.KindOf(rawList))
	}

	for i, rawEntry := range list {
		entry, ok := rawEntry.(*savejson.Object)
		if !ok {
			return model.Malformed(group, i, "entry is a JSON %s, expected an object", savejson.KindOf(rawEntry))
		}
		key, ok := entry.Get(KeyEntityID)
		if !ok {
			return model.Malformed(group, i, "entry is missing %q", KeyEntityID)
		}
		rawProps, ok := entry.Get(KeyEntityProps)
		if !ok {
			return model.Malformed(group, i, "entry is missing %q", KeyEntityProps)
		}
		id, ok := reference.Decode(key)
		if !ok {
			return model.Malformed(group, i, "%q is not a reference", KeyEntityID)
		}
		props, ok := rawProps.(*savejson.Object)
		if !ok {
			return model.Malformed(group, i, "%q is a JSON %s, expected an object", KeyEntityProps, savejson.KindOf(rawProps))
		}
		tag, ok := props.Get(reference.FieldType)
		if !ok {
			return model.Malformed(group, i, "entity %d has no %q tag", id, reference.FieldType)
		}
		if tag != group {
			return model.Malformed(group, i, "entity %d has type tag %v, expected %q", id, tag, group)
		}

		here := model.Location{Group: group, Index: i}
		if prev, dup := d.registry[id]; dup {
			return model.Malformed(group, i, "duplicate entity ID %d (first defined at %s)", id, prev)
		}
		d.registry[id] = here
	}
	return nil
}

// Root returns the document tree for serialization.
func (d *Document) Root() *savejson.Object {
	return d.root
}

// Len returns the number of registered entities.
func (d *Document) Len() int {
	return len(d.registry)
}

// Dirty reports whether SetProperty has changed the document since load
// or since the last MarkClean.
func (d *Document) Dirty() bool {
	return d.dirty
}

// MarkClean resets the dirty flag after a successful save.
func (d *Document) MarkClean() {
	d.dirty = false
}

// CurrentID returns the next allocatable ID recorded in the save.
func (d *Document) CurrentID() (int64, bool) {
	v, _ := d.root.Get(KeyCurrentID)
	return reference.Decode(v)
}

// Locate returns where the entity with the given ID is stored.
func (d *Document) Locate(id int64) (model.Location, bool) {
	loc, ok := d.registry[id]
	return loc, ok
}

// IDs returns every registered ID in document order.
func (d *Document) IDs() []int64 {
	ids := make([]int64, 0, len(d.registry))
	d.states.Range(func(group string, rawList any) bool {
		list, _ := rawList.([]any)
		for _, entry := range list {
			key, _ := entry.(*savejson.Object).Get(KeyEntityID)
			id, _ := reference.Decode(key)
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// entity returns the property map of the entity with the given ID.
func (d *Document) entity(id int64) (*savejson.Object, model.Location, error) {
	loc, ok := d.registry[id]
	if !ok {
		return nil, model.Location{}, &model.DocumentError{
			Kind:    model.ErrUnknownEntity,
			Index:   -1,
			Message: fmt.Sprintf("no entity with ID %d", id),
		}
	}
	rawList, _ := d.states.Get(loc.Group)
	entry := rawList.([]any)[loc.Index].(*savejson.Object)
	props, _ := entry.Get(KeyEntityProps)
	return props.(*savejson.Object), loc, nil
}
