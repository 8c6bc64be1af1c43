package document

import (
	"strings"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
	"github.com/mmr-tortoise/tise/internal/reference"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// DisplayGroupName strips the namespace prefix from a stored group name.
func (d *Document) DisplayGroupName(group string) string {
	return strings.TrimPrefix(group, d.opts.namespace)
}

// Groups lists every group in document order.
func (d *Document) Groups() []model.GroupSummary {
	out := make([]model.GroupSummary, 0, d.states.Len())
	d.states.Range(func(group string, rawList any) bool {
		list, _ := rawList.([]any)
		out = append(out, model.GroupSummary{
			Name:        group,
			DisplayName: d.DisplayGroupName(group),
			Count:       len(list),
		})
		return true
	})
	return out
}

// DisplayNames returns the ordered set of group display names. A bare and a
// prefixed group with the same display name appear once.
func (d *Document) DisplayNames() []string {
	seen := make(map[string]bool, d.states.Len())
	out := make([]string, 0, d.states.Len())
	for _, g := range d.Groups() {
		if seen[g.DisplayName] {
			continue
		}
		seen[g.DisplayName] = true
		out = append(out, g.DisplayName)
	}
	return out
}

// ResolveGroup returns the stored name for a group: name itself if present,
// otherwise the namespace-prefixed name.
func (d *Document) ResolveGroup(name string) (string, error) {
	if d.states.Has(name) {
		return name, nil
	}
	if prefixed := d.opts.namespace + name; d.states.Has(prefixed) {
		return prefixed, nil
	}
	return "", &model.DocumentError{Kind: model.ErrGroupNotFound, Group: name, Index: -1}
}

// EntitiesInGroup lists the entities of a group with their display names.
func (d *Document) EntitiesInGroup(name string) ([]model.EntitySummary, error) {
	group, err := d.ResolveGroup(name)
	if err != nil {
		return nil, err
	}
	rawList, _ := d.states.Get(group)
	list, _ := rawList.([]any)

	out := make([]model.EntitySummary, 0, len(list))
	for i, rawEntry := range list {
		entry := rawEntry.(*savejson.Object)
		key, _ := entry.Get(KeyEntityID)
		props, _ := entry.Get(KeyEntityProps)
		id, _ := reference.Decode(key)
		out = append(out, model.EntitySummary{
			ID:          id,
			DisplayName: d.nameOf(props.(*savejson.Object)),
			Index:       i,
		})
	}
	return out, nil
}

// ResolveDisplayName returns the display name of the entity with the given
// ID. A dangling reference yields the unknown sentinel and a warning; it is
// never an error.
func (d *Document) ResolveDisplayName(id int64) string {
	props, _, err := d.entity(id)
	if err != nil {
		d.opts.logger.Warn("unresolved reference", "id", id)
		return d.opts.unknown
	}
	return d.nameOf(props)
}

// nameOf returns the first non-empty display-name property, or the sentinel.
func (d *Document) nameOf(props *savejson.Object) string {
	for _, k := range d.opts.displayNameKeys {
		v, ok := props.Get(k)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return d.opts.unknown
}

// Entity returns the property map of an entity. The map is live: callers
// must not modify it directly (use SetProperty).
func (d *Document) Entity(id int64) (*savejson.Object, error) {
	props, _, err := d.entity(id)
	return props, err
}

// GetProperty returns the raw value of one property.
func (d *Document) GetProperty(id int64, key string) (any, error) {
	props, loc, err := d.entity(id)
	if err != nil {
		return nil, err
	}
	v, ok := props.Get(key)
	if !ok {
		return nil, unknownProperty(loc, key)
	}
	return v, nil
}

// Property returns one property classified.
func (d *Document) Property(id int64, key string) (property.Classified, error) {
	v, err := d.GetProperty(id, key)
	if err != nil {
		return nil, err
	}
	return property.Classify(key, v, d.opts.rules), nil
}

// Properties returns every property of an entity, classified, in order.
func (d *Document) Properties(id int64) ([]property.Named, error) {
	props, _, err := d.entity(id)
	if err != nil {
		return nil, err
	}
	out := make([]property.Named, 0, props.Len())
	props.Range(func(k string, v any) bool {
		out = append(out, property.Named{Name: k, Value: property.Classify(k, v, d.opts.rules)})
		return true
	})
	return out, nil
}

func unknownProperty(loc model.Location, key string) error {
	return &model.DocumentError{
		Kind:     model.ErrUnknownProperty,
		Group:    loc.Group,
		Index:    loc.Index,
		Property: key,
	}
}
