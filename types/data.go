package types

import (
	"encoding/json"

	"github.com/juju/errors"
	"github.com/spf13/cast"
)

/**
 * Data carries the free-form per-stage configuration payload that is
 * handed to the stage handler. Values keep whatever type the caller put
 * in; the getters coerce on the way out.
 */
type Data map[string]any

func (d *Data) Get(key string) (any, bool) {
	v, exists := (*d)[key]
	return v, exists
}

func (d *Data) GetString(key string) (string, bool) {
	v, exists := d.Get(key)
	return cast.ToString(v), exists
}

func (d *Data) GetInt(key string) (int, bool) {
	v, exists := d.Get(key)
	return cast.ToInt(v), exists
}

func (d *Data) GetBool(key string) (bool, bool) {
	v, exists := d.Get(key)
	return cast.ToBool(v), exists
}

func (d *Data) GetFloat64(key string) (float64, bool) {
	v, exists := d.Get(key)
	return cast.ToFloat64(v), exists
}

func (d *Data) GetStringSlice(key string) ([]string, bool) {
	v, exists := d.Get(key)
	return cast.ToStringSlice(v), exists
}

func (d *Data) GetStruct(key string, s any) error {
	v, exists := d.Get(key)
	if !exists {
		return errors.NotFound
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	return json.Unmarshal(b, s)
}

func (d *Data) Set(key string, value any) {
	(*d)[key] = value
}
