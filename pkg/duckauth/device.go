package duckauth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/google/uuid"
)

// DeviceIDKey is the secret store entry holding the per-install device id.
const DeviceIDKey = "DuckAuth:deviceId"

// DefaultDeviceType is sent when Options.Device leaves DeviceType empty.
const DefaultDeviceType = "cli"

// resolveDevice fills in missing device fields. The device id is generated
// once and persisted so that it is stable across runs.
func (m *Manager) resolveDevice(ctx context.Context) (DeviceInfo, error) {
	m.deviceMu.Lock()
	defer m.deviceMu.Unlock()

	if m.device.DeviceID != "" {
		return m.device, nil
	}

	raw, err := m.secrets.Get(ctx, DeviceIDKey)
	switch {
	case err == nil && uuid.Validate(string(raw)) == nil:
		m.device.DeviceID = string(raw)
		return m.device, nil

	case err == nil, errors.Is(err, keychain.ErrNotFound), errors.Is(err, keychain.ErrCorrupt):
		id := uuid.NewString()
		if err := m.secrets.Set(ctx, DeviceIDKey, []byte(id)); err != nil {
			return DeviceInfo{}, fmt.Errorf("%w: device id: %w", ErrStorageWriteFailed, err)
		}
		m.device.DeviceID = id
		return m.device, nil

	default:
		return DeviceInfo{}, fmt.Errorf("%w: device id: %w", ErrStorageRead, err)
	}
}

func withDeviceDefaults(d DeviceInfo) DeviceInfo {
	if d.DeviceType == "" {
		d.DeviceType = DefaultDeviceType
	}
	if d.Model == "" {
		d.Model = runtime.GOARCH
	}
	if d.OS == "" {
		d.OS = runtime.GOOS
	}
	return d
}
