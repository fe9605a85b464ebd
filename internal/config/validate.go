// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for configuration structs.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report YAML key names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate checks field ranges with struct tags, then the cross-section
// rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fieldPath(e)+" "+formatValidationMessage(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	// Transport Validation
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		return fmt.Errorf("transport.websocket_address must be set when WebSocket is enabled")
	}

	return nil
}

// fieldPath turns "Config.levels.noise_floor" into "levels.noise_floor".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationMessage creates a human-readable message from a validator error.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s (got %v)", e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s (got %v)", e.Param(), e.Value())
	case "ltfield":
		return fmt.Sprintf("must be less than %s (got %v)", toSnake(e.Param()), e.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s] (got %v)", e.Param(), e.Value())
	case "hostname_port":
		return fmt.Sprintf("must be a host:port address (got %q)", e.Value())
	default:
		return fmt.Sprintf("failed '%s' validation", e.Tag())
	}
}

// toSnake converts the Go field name carried by ltfield params into the
// YAML key used everywhere else in messages.
func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
