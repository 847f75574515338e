package registry

import "time"

// RemoteState is the live portion of a device or sensor record as held
// by the remote store. Everything else comes from the catalog.
type RemoteState struct {
	State         bool
	LastTriggered *time.Time
}

// Snapshot maps device/sensor id to its remote state.
type Snapshot map[string]RemoteState

// MergeDevices overlays a remote snapshot onto the device catalog.
// Entries missing from the snapshot default to off; a nil snapshot is
// treated as empty. Output order is always catalog order, and the result
// fully replaces any previous merge.
func MergeDevices(snap Snapshot) []Device {
	out := make([]Device, len(Devices))
	for i, spec := range Devices {
		d := Device{DeviceSpec: spec}
		if rs, ok := snap[spec.ID]; ok {
			d.State = rs.State
		}
		out[i] = d
	}
	return out
}

// MergeSensors overlays a remote snapshot onto the sensor catalog.
func MergeSensors(snap Snapshot) []Sensor {
	out := make([]Sensor, len(Sensors))
	for i, spec := range Sensors {
		s := Sensor{SensorSpec: spec}
		if rs, ok := snap[spec.ID]; ok {
			s.State = rs.State
			s.LastTriggered = rs.LastTriggered
		}
		out[i] = s
	}
	return out
}
