package document

import (
	"github.com/mmr-tortoise/tise/internal/property"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// Rules returns the classification rules the document was loaded with.
func (d *Document) Rules() property.Rules {
	return d.opts.rules
}

// SetProperty replaces one existing property of an entity in place.
//
// A nil value erases the property to JSON null. The key must already exist;
// the registry is not touched and the document is not re-validated. When
// the new value classifies differently from the old one (e.g. an integer
// becoming a bool) a warning is logged and the write still happens: the
// save format has no fixed per-property schema.
func (d *Document) SetProperty(id int64, key string, value any) error {
	props, loc, err := d.entity(id)
	if err != nil {
		return err
	}
	old, ok := props.Get(key)
	if !ok {
		return unknownProperty(loc, key)
	}

	if value != nil && typeChanged(key, old, value, d.opts.rules) {
		d.opts.logger.Warn("property type changed",
			"id", id,
			"property", key,
			"from", describe(key, old, d.opts.rules),
			"to", describe(key, value, d.opts.rules),
		)
	}

	props.Set(key, value)
	d.dirty = true
	d.opts.logger.Debug("property set", "id", id, "location", loc.String(), "property", key)
	return nil
}

func typeChanged(key string, old, value any, rules property.Rules) bool {
	before := property.Classify(key, old, rules)
	after := property.Classify(key, value, rules)
	if before.Shape() != after.Shape() {
		return true
	}
	if s, ok := before.(property.Scalar); ok {
		return s.Kind != after.(property.Scalar).Kind
	}
	return false
}

func describe(key string, v any, rules property.Rules) string {
	c := property.Classify(key, v, rules)
	if s, ok := c.(property.Scalar); ok {
		return s.Kind.String()
	}
	return c.Shape().String()
}

// CloneEntity returns a deep copy of an entity's properties, for exports
// that must not alias the live tree.
func (d *Document) CloneEntity(id int64) (*savejson.Object, error) {
	props, _, err := d.entity(id)
	if err != nil {
		return nil, err
	}
	return savejson.Clone(props).(*savejson.Object), nil
}
