package audio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ListDevices enumerates the endpoints a capture in dir can use and marks
// the system default. A device without a readable name or id gets a
// placeholder rather than failing the whole listing.
func ListDevices(b Backend, dir Direction, opts ...Option) ([]Device, error) {
	o := buildOptions(opts)
	flow := dir.Flow()

	var defaultID string
	if def, err := b.DefaultDevice(flow); err != nil {
		o.log.Warn().Err(err).
			Str("backend", b.Name()).
			Stringer("flow", flow).
			Msg("Failed to get default device")
	} else {
		defaultID = def.ID
	}

	devices, err := b.Devices(flow)
	if err != nil {
		o.log.Error().Err(err).
			Str("backend", b.Name()).
			Stringer("flow", flow).
			Msg("Failed to enumerate devices")
		return nil, &EnumerationError{Flow: flow, Err: err}
	}

	result := make([]Device, 0, len(devices))
	for i, d := range devices {
		if d.Name == "" {
			d.Name = placeholderName(flow, i)
		}
		if d.ID == "" {
			d.ID = placeholderID(b.Name(), flow, i)
		}
		d.Default = defaultID != "" && d.ID == defaultID
		result = append(result, d)
	}
	return result, nil
}

func placeholderName(flow Flow, i int) string {
	if flow == FlowRender {
		return fmt.Sprintf("Speaker %d", i)
	}
	return fmt.Sprintf("Microphone %d", i)
}

func placeholderID(backend string, flow Flow, i int) string {
	if flow == FlowRender {
		return fmt.Sprintf("%s_output_%d", backend, i)
	}
	return fmt.Sprintf("%s_input_%d", backend, i)
}

// resolveDevice finds id among the endpoints of flow. An empty id, or one
// that no longer matches any endpoint, resolves to the default.
func resolveDevice(b Backend, id string, flow Flow, log zerolog.Logger) (Device, error) {
	if id != "" {
		devices, err := b.Devices(flow)
		if err != nil {
			log.Error().Err(err).Stringer("flow", flow).Msg("Failed to enumerate devices")
		}
		for _, d := range devices {
			if d.ID == id {
				return d, nil
			}
		}
		log.Warn().
			Str("device_id", id).
			Stringer("flow", flow).
			Msg("No matching device found, falling back to default")
	}

	dev, err := b.DefaultDevice(flow)
	if err != nil {
		return Device{}, fmt.Errorf("failed to get default %s device: %w", flow, err)
	}
	return dev, nil
}

// normalizeDeviceID maps the ways of asking for the system default to "".
func normalizeDeviceID(id string) string {
	if id == "default" {
		return ""
	}
	return id
}
