// Package registry holds the fixed catalog of controllable devices and
// read-only sensors, and merges it against live state from the remote store.
package registry

import "time"

// DeviceType classifies a controllable channel.
type DeviceType string

const (
	TypeLight DeviceType = "light"
	TypeAC    DeviceType = "ac"
	TypeDoor  DeviceType = "door"
)

// DeviceSpec is one catalog entry. Code is the catalog-assigned numeric
// id the Bluetooth transport sends as its single-byte toggle command.
// Pin is the hardware channel on the controller board, advisory only.
type DeviceSpec struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Code byte       `json:"code"`
	Pin  int        `json:"pin"`
	Type DeviceType `json:"type"`
}

// SensorSpec is one read-only sensor entry.
type SensorSpec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Pin  int    `json:"pin"`
}

// Devices is the fixed device catalog. The rendered list is always this
// catalog in this order; remote data only overlays state.
var Devices = []DeviceSpec{
	{ID: "lampu-ruang-tamu", Name: "Ruang Tamu", Code: 1, Pin: 16, Type: TypeLight},
	{ID: "lampu-kamar-mandi", Name: "Kamar Mandi", Code: 2, Pin: 17, Type: TypeLight},
	{ID: "lampu-ruang-dapur", Name: "Ruang Dapur", Code: 3, Pin: 18, Type: TypeLight},
	{ID: "lampu-teras", Name: "Lampu Teras", Code: 4, Pin: 19, Type: TypeLight},
	{ID: "ac-kantor", Name: "AC Kantor", Code: 5, Pin: 21, Type: TypeAC},
	{ID: "ac-ruang-meeting", Name: "AC Ruang Meeting", Code: 6, Pin: 22, Type: TypeAC},
	{ID: "pintu-utama", Name: "Pintu Utama", Code: 7, Pin: 25, Type: TypeDoor},
	{ID: "pintu-gudang", Name: "Pintu Gudang", Code: 8, Pin: 26, Type: TypeDoor},
}

// Sensors is the fixed sensor catalog.
var Sensors = []SensorSpec{
	{ID: "sensor-gerak-lobi", Name: "Sensor Gerak Lobi", Pin: 32},
	{ID: "sensor-pintu-gudang", Name: "Sensor Pintu Gudang", Pin: 33},
	{ID: "sensor-asap-workshop", Name: "Sensor Asap Workshop", Pin: 34},
}

// Device is a catalog entry overlaid with live state.
type Device struct {
	DeviceSpec
	State bool `json:"state"`
}

// Sensor is a sensor entry overlaid with live state.
type Sensor struct {
	SensorSpec
	State         bool       `json:"state"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

// DeviceByID looks a spec up in the catalog.
func DeviceByID(id string) (DeviceSpec, bool) {
	for _, d := range Devices {
		if d.ID == id {
			return d, true
		}
	}
	return DeviceSpec{}, false
}
