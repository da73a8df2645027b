package action

import (
	"fmt"

	"github.com/viant/structology/conv"
)

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true
	return conv.NewConverter(options)
}

// Decode converts a step config map into a typed struct pointer
func Decode(config map[string]interface{}, target interface{}) error {
	if len(config) == 0 {
		return nil
	}
	if err := converter.Convert(config, target); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
