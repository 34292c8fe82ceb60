package utils

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// stringHook builds a decode hook that converts string source values
// with convert whenever the target has the given kind. Needed because
// environment variables always arrive as strings.
func stringHook(kind reflect.Kind, convert func(string) (interface{}, error)) mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != kind {
			return data, nil
		}
		return convert(data.(string))
	}
}

func StringToBoolHookFunc() mapstructure.DecodeHookFunc {
	return stringHook(reflect.Bool, func(s string) (interface{}, error) {
		switch s {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}

		value, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value %q", s)
		}
		return value, nil
	})
}

func StringToIntHookFunc() mapstructure.DecodeHookFunc {
	return stringHook(reflect.Int, func(s string) (interface{}, error) {
		value, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value %q", s)
		}
		return value, nil
	})
}

// UnmarshalConfig decodes all settings of v into cfg, converting
// durations, bools and ints given as strings along the way.
func UnmarshalConfig(v viper.Viper, cfg interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			StringToBoolHookFunc(),
			StringToIntHookFunc(),
		),
		Result: cfg,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(v.AllSettings())
}
